package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/drives/contents"
	"github.com/jmgilman/go/drives/errors"
	"github.com/jmgilman/go/drives/gateway"
	"github.com/jmgilman/go/drives/store/localstore"
	"github.com/jmgilman/go/drives/transport"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestService returns a service whose primary store holds the bucket
// "data" and whose local store holds the bucket "home".
func newTestService(t *testing.T, opts ...Option) (*Service, *localstore.Store) {
	t.Helper()
	ctx := context.Background()

	primary := localstore.NewMemory()
	_, err := primary.CreateBucket(ctx, "data", "")
	require.NoError(t, err)

	local := localstore.NewMemory()
	_, err = local.CreateBucket(ctx, "home", "")
	require.NoError(t, err)

	return New(primary, append([]Option{WithLocalStore(local)}, opts...)...), primary
}

func mustHandle(t *testing.T, svc *Service, endpoint, method string, body any) any {
	t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	result, err := svc.Handle(context.Background(), endpoint, method, raw)
	require.NoError(t, err)
	return result
}

func TestService_Drives(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	drives, err := svc.ListDrives(ctx)
	require.NoError(t, err)
	require.Len(t, drives, 2)
	assert.Equal(t, "data", drives[0].Name)
	assert.False(t, drives[0].Mounted)
	assert.Equal(t, "home", drives[1].Name)
	assert.True(t, drives[1].Mounted, "local drives are always mounted")

	t.Run("mount twice conflicts", func(t *testing.T) {
		require.NoError(t, svc.Mount(ctx, gateway.MountRequest{DriveName: "data"}))
		err := svc.Mount(ctx, gateway.MountRequest{DriveName: "data"})
		assert.True(t, errors.HasCode(err, errors.CodeConflict))
		assert.Contains(t, err.Error(), MessageAlreadyMounted)
	})

	t.Run("mount local conflicts", func(t *testing.T) {
		err := svc.Mount(ctx, gateway.MountRequest{DriveName: "home"})
		assert.True(t, errors.HasCode(err, errors.CodeConflict))
	})

	t.Run("mount unknown", func(t *testing.T) {
		err := svc.Mount(ctx, gateway.MountRequest{DriveName: "nope"})
		assert.True(t, errors.HasCode(err, errors.CodeNotFound))
	})

	t.Run("unmount", func(t *testing.T) {
		require.NoError(t, svc.Unmount(ctx, gateway.UnmountRequest{DriveName: "data"}))
		err := svc.Unmount(ctx, gateway.UnmountRequest{DriveName: "data"})
		assert.True(t, errors.HasCode(err, errors.CodeNotFound))
	})

	t.Run("create", func(t *testing.T) {
		info, err := svc.CreateDrive(ctx, gateway.CreateDriveRequest{NewDriveName: "fresh"})
		require.NoError(t, err)
		assert.Equal(t, "fresh", info.Name)
		assert.Equal(t, "local", info.Provider)
	})
}

func TestService_Configure(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	limit := 3
	require.NoError(t, svc.Configure(ctx, gateway.ConfigRequest{NewLimit: &limit}))
	assert.Equal(t, 3, svc.ListingLimit())

	zero := 0
	err := svc.Configure(ctx, gateway.ConfigRequest{NewLimit: &zero})
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))

	require.NoError(t, svc.Configure(ctx, gateway.ConfigRequest{ExcludeDriveName: "data"}))
	drives, err := svc.ListDrives(ctx)
	require.NoError(t, err)
	require.Len(t, drives, 1)
	assert.Equal(t, "home", drives[0].Name)

	require.NoError(t, svc.Configure(ctx, gateway.ConfigRequest{IncludeDriveName: "data"}))
	drives, err = svc.ListDrives(ctx)
	require.NoError(t, err)
	assert.Len(t, drives, 2)

	err = svc.Configure(ctx, gateway.ConfigRequest{})
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))

	t.Run("external drive must exist", func(t *testing.T) {
		err := svc.Configure(ctx, gateway.ConfigRequest{ExternalDriveName: "s3://missing"})
		assert.True(t, errors.HasCode(err, errors.CodeNotFound))
	})

	t.Run("public drive", func(t *testing.T) {
		_, err := svc.primary.CreateBucket(ctx, "public", "")
		require.NoError(t, err)
		require.NoError(t, svc.Configure(ctx, gateway.ConfigRequest{PublicDriveName: "https://public.s3.amazonaws.com"}))

		drives, err := svc.ListDrives(ctx)
		require.NoError(t, err)
		var names []string
		for _, d := range drives {
			names = append(names, d.Name)
		}
		assert.Contains(t, names, "public")
	})
}

func TestService_Objects(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	require.NoError(t, svc.Mount(ctx, gateway.MountRequest{DriveName: "data"}))

	t.Run("unmounted drive", func(t *testing.T) {
		_, err := svc.Read(ctx, "fresh", "")
		assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))
	})

	t.Run("save and read", func(t *testing.T) {
		_, err := svc.Save(ctx, "data", "docs/a.txt", gateway.SaveRequest{Content: "hello", Format: contents.FormatText})
		require.NoError(t, err)

		got, err := svc.Read(ctx, "data", "docs/a.txt")
		require.NoError(t, err)
		row := got.(gateway.Row)
		assert.Equal(t, "hello", string(row.Content))
		assert.Equal(t, int64(5), row.Size)
	})

	t.Run("save base64", func(t *testing.T) {
		encoded := base64.StdEncoding.EncodeToString([]byte{0x00, 0xff})
		row, err := svc.Save(ctx, "data", "bin/blob.bin", gateway.SaveRequest{Content: encoded, Format: contents.FormatBase64})
		require.NoError(t, err)
		assert.Equal(t, int64(2), row.Size)

		_, err = svc.Save(ctx, "data", "bin/bad.bin", gateway.SaveRequest{Content: "%%%", Format: contents.FormatBase64})
		assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))
	})

	t.Run("read directory lists", func(t *testing.T) {
		got, err := svc.Read(ctx, "data", "docs")
		require.NoError(t, err)
		rows := got.([]gateway.Row)
		require.Len(t, rows, 1)
		assert.Equal(t, "docs/a.txt", rows[0].Path)
	})

	t.Run("read missing", func(t *testing.T) {
		_, err := svc.Read(ctx, "data", "missing")
		assert.True(t, errors.HasCode(err, errors.CodeNotFound))
	})

	t.Run("head", func(t *testing.T) {
		assert.NoError(t, svc.Head(ctx, "data", "docs/a.txt"))
		assert.NoError(t, svc.Head(ctx, "data", "docs"))
		assert.True(t, errors.HasCode(svc.Head(ctx, "data", "nope"), errors.CodeNotFound))
	})

	t.Run("create directory", func(t *testing.T) {
		row, err := svc.Create(ctx, "data", "empty", true)
		require.NoError(t, err)
		assert.Equal(t, "empty/", row.Path)
		assert.NoError(t, svc.Head(ctx, "data", "empty"))
	})

	t.Run("move", func(t *testing.T) {
		_, err := svc.Save(ctx, "data", "m.txt", gateway.SaveRequest{Content: "m"})
		require.NoError(t, err)
		row, err := svc.Move(ctx, "data", "m.txt", gateway.MoveRequest{NewPath: "moved.txt"})
		require.NoError(t, err)
		assert.Equal(t, "moved.txt", row.Path)
		assert.True(t, errors.HasCode(svc.Head(ctx, "data", "m.txt"), errors.CodeNotFound))
	})

	t.Run("copy marker across drives", func(t *testing.T) {
		row, err := svc.CopyObject(ctx, "data", "empty", gateway.CopyRequest{ToDrive: "home", ToPath: "empty-Copy"})
		require.NoError(t, err)
		assert.Equal(t, "empty-Copy/", row.Path)
	})

	t.Run("delete resolves marker", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, "data", "empty"))
		assert.True(t, errors.HasCode(svc.Delete(ctx, "data", "empty"), errors.CodeNotFound))
	})

	t.Run("presign unsupported locally", func(t *testing.T) {
		_, err := svc.Presign(ctx, "data", "docs/a.txt")
		assert.True(t, errors.HasCode(err, errors.CodeUnsupported))
	})

	t.Run("listing limit", func(t *testing.T) {
		limit := 1
		require.NoError(t, svc.Configure(ctx, gateway.ConfigRequest{NewLimit: &limit}))
		got, err := svc.Read(ctx, "data", "")
		require.NoError(t, err)
		assert.Len(t, got.([]gateway.Row), 1)
	})
}

func TestHandle_Routing(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name     string
		endpoint string
		method   string
		body     any
		wantCode errors.ErrorCode
	}{
		{name: "unknown endpoint", endpoint: "elsewhere", method: http.MethodGet, wantCode: errors.CodeNotFound},
		{name: "config get", endpoint: "drives/config", method: http.MethodGet, wantCode: errors.CodeNotImplemented},
		{name: "drives patch", endpoint: "drives", method: http.MethodPatch, wantCode: errors.CodeNotImplemented},
		{name: "bad body", endpoint: "drives", method: http.MethodPost, body: json.RawMessage(`"x"`), wantCode: errors.CodeInvalidInput},
		{name: "copy without drive", endpoint: "drives/home/a", method: http.MethodPut, body: map[string]string{"to_path": "b"}, wantCode: errors.CodeInvalidInput},
		{name: "object options", endpoint: "drives/home/a", method: http.MethodOptions, wantCode: errors.CodeNotImplemented},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw []byte
			if tt.body != nil {
				var err error
				raw, err = json.Marshal(tt.body)
				require.NoError(t, err)
			}
			_, err := svc.Handle(context.Background(), tt.endpoint, tt.method, raw)
			assert.True(t, errors.HasCode(err, tt.wantCode), "got %v", err)
		})
	}

	t.Run("put saves", func(t *testing.T) {
		got := mustHandle(t, svc, "drives/home/notes/n.md", http.MethodPut, gateway.SaveRequest{Content: "# n"})
		assert.Equal(t, "notes/n.md", got.(gateway.Row).Path)
	})

	t.Run("post presign routes to presign", func(t *testing.T) {
		_, err := svc.Handle(context.Background(), "drives/home/notes/n.md", http.MethodPost, []byte(`{"presigned_link":true}`))
		assert.True(t, errors.HasCode(err, errors.CodeUnsupported))
	})

	t.Run("drive root lists", func(t *testing.T) {
		got := mustHandle(t, svc, "drives/home", http.MethodGet, nil)
		assert.Len(t, got.([]gateway.Row), 1)
	})
}

func TestHandle_PathsStayInsideDrive(t *testing.T) {
	ctx := context.Background()
	st := localstore.NewMemory()
	for _, name := range []string{"alpha", "beta"} {
		_, err := st.CreateBucket(ctx, name, "")
		require.NoError(t, err)
	}
	_, err := st.PutObject(ctx, "beta", "secret.txt", []byte("beta-only"))
	require.NoError(t, err)
	_, err = st.PutObject(ctx, "alpha", "a.txt", []byte("a"))
	require.NoError(t, err)

	svc := New(st)
	require.NoError(t, svc.Mount(ctx, gateway.MountRequest{DriveName: "alpha"}))
	require.NoError(t, svc.Configure(ctx, gateway.ConfigRequest{ExcludeDriveName: "beta"}))

	tests := []struct {
		name     string
		endpoint string
		method   string
		body     any
	}{
		{name: "get", endpoint: "drives/alpha/../beta/secret.txt", method: http.MethodGet},
		{name: "head", endpoint: "drives/alpha/../beta/secret.txt", method: http.MethodHead},
		{name: "delete", endpoint: "drives/alpha/../beta/secret.txt", method: http.MethodDelete},
		{name: "put", endpoint: "drives/alpha/../beta/planted.txt", method: http.MethodPut, body: gateway.SaveRequest{Content: "x"}},
		{name: "create", endpoint: "drives/alpha/x/../../beta/planted.txt", method: http.MethodPost, body: map[string]bool{"is_dir": false}},
		{name: "dot segment", endpoint: "drives/alpha/./a.txt", method: http.MethodGet},
		{name: "empty segment", endpoint: "drives/alpha/x//a.txt", method: http.MethodGet},
		{name: "backslash", endpoint: `drives/alpha/..\beta\secret.txt`, method: http.MethodGet},
		{name: "parent drive", endpoint: "drives/../beta/secret.txt", method: http.MethodGet},
		{name: "move target", endpoint: "drives/alpha/a.txt", method: http.MethodPatch, body: gateway.MoveRequest{NewPath: "../beta/planted.txt"}},
		{name: "copy target", endpoint: "drives/alpha/a.txt", method: http.MethodPut, body: gateway.CopyRequest{ToDrive: "alpha", ToPath: "../beta/planted.txt"}},
		{name: "copy drive", endpoint: "drives/alpha/a.txt", method: http.MethodPut, body: gateway.CopyRequest{ToDrive: "alpha/../beta", ToPath: "planted.txt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw []byte
			if tt.body != nil {
				var err error
				raw, err = json.Marshal(tt.body)
				require.NoError(t, err)
			}
			result, err := svc.Handle(ctx, tt.endpoint, tt.method, raw)
			assert.True(t, errors.HasCode(err, errors.CodeInvalidInput), "got %v", err)
			assert.Nil(t, result)
		})
	}

	data, _, err := st.GetObject(ctx, "beta", "secret.txt")
	require.NoError(t, err)
	assert.Equal(t, "beta-only", string(data))
	_, err = st.StatObject(ctx, "beta", "planted.txt")
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))

	t.Run("directory paths still allowed", func(t *testing.T) {
		rows := mustHandle(t, svc, "drives/alpha/", http.MethodGet, nil)
		assert.Len(t, rows.([]gateway.Row), 1)
		mustHandle(t, svc, "drives/alpha/sub/", http.MethodPost, map[string]bool{"is_dir": true})
	})

	t.Run("over http", func(t *testing.T) {
		srv := httptest.NewServer(Router(svc, RouterConfig{}))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/" + transport.DefaultNamespace + "/drives/alpha/%2E%2E/beta/secret.txt")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, errors.HTTPStatus(errors.CodeInvalidInput), resp.StatusCode)
	})
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	d := NewDispatcher(svc)

	raw, err := d.Request(ctx, "drives", http.MethodGet, nil)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"data":[`)

	_, err = d.Request(ctx, "drives/home/missing.txt", http.MethodGet, nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
	assert.Equal(t, http.StatusNotFound, errors.StatusOf(err))

	raw, err = d.Request(ctx, "drives/home/missing.txt", http.MethodHead, nil)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
	assert.Nil(t, raw)
}

// TestRouter_RoundTrip drives the HTTP surface through the client stack.
func TestRouter_RoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	srv := httptest.NewServer(Router(svc, RouterConfig{Token: "secret", Metrics: true}))
	defer srv.Close()

	client, err := transport.New(transport.Config{BaseURL: srv.URL, Token: "secret"})
	require.NoError(t, err)
	gw := gateway.New(client)

	require.NoError(t, gw.MountDrive(ctx, gateway.MountRequest{DriveName: "data"}))
	err = gw.MountDrive(ctx, gateway.MountRequest{DriveName: "data"})
	assert.True(t, errors.HasCode(err, errors.CodeConflict))
	assert.Equal(t, MessageAlreadyMounted, messageOf(err))

	_, err = gw.Put(ctx, "data", "dir with space/a.txt", gateway.SaveRequest{Content: "hello"}, nil)
	require.NoError(t, err)

	model, err := gw.Get(ctx, "data", "dir with space/a.txt", nil, true)
	require.NoError(t, err)
	assert.Equal(t, "hello", model.Content)

	dir, err := gw.Get(ctx, "data", "dir with space", nil, false)
	require.NoError(t, err)
	require.Len(t, dir.Children(), 1)
	assert.Equal(t, "a.txt", dir.Children()[0].Name)

	exists, err := gw.HeadCheck(ctx, "data", "dir with space/a.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = gw.HeadCheck(ctx, "data", "nope.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, gw.Delete(ctx, "data", "dir with space"))
	rows, err := gw.List(ctx, "data", "")
	require.NoError(t, err)
	assert.Empty(t, rows)

	t.Run("unauthorized", func(t *testing.T) {
		anon, err := transport.New(transport.Config{BaseURL: srv.URL})
		require.NoError(t, err)
		_, err = anon.Request(ctx, "drives", http.MethodGet, nil)
		assert.True(t, errors.HasCode(err, errors.CodeUnauthorized))
	})

	t.Run("request id echoed", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))
	})

	t.Run("metrics", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func messageOf(err error) string {
	var pe errors.PlatformError
	if errors.As(err, &pe) {
		return pe.Message()
	}
	return ""
}
