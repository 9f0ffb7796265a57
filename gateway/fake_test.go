package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jmgilman/go/drives/errors"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// fakeBackend is an in-memory rendition of the drives REST surface that
// records every call.
type fakeBackend struct {
	mu      sync.Mutex
	objects map[string]map[string]Row // drive -> key -> row
	fail    map[string]error          // "METHOD endpoint" -> error
	calls   []string
}

func newFakeBackend(drive string, keys ...string) *fakeBackend {
	f := &fakeBackend{
		objects: map[string]map[string]Row{drive: {}},
		fail:    map[string]error{},
	}
	for _, key := range keys {
		f.objects[drive][key] = Row{Path: key, LastModified: epoch, Size: int64(len(key))}
	}
	return f
}

func (f *fakeBackend) callsFor(method string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if strings.HasPrefix(c, method+" ") {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

func (f *fakeBackend) keys(drive string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for k := range f.objects[drive] {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (f *fakeBackend) Request(_ context.Context, endpoint, method string, body any) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := method + " " + endpoint
	f.calls = append(f.calls, call)
	if err, ok := f.fail[call]; ok {
		return nil, err
	}

	rest := strings.TrimPrefix(endpoint, EndpointDrives+"/")
	drive, key, _ := strings.Cut(rest, "/")
	objs, ok := f.objects[drive]
	if !ok {
		return nil, errors.New(errors.CodeNotFound, "drive not found")
	}

	notFound := errors.New(errors.CodeNotFound, "object not found")
	switch method {
	case http.MethodGet:
		if key != "" && !strings.HasSuffix(key, "/") {
			if row, ok := objs[key]; ok {
				row.Content = []byte("payload of " + key)
				return envelopeOf(row)
			}
			key += "/"
		}
		var rows []Row
		for k, row := range objs {
			if strings.HasPrefix(k, key) {
				rows = append(rows, row)
			}
		}
		if len(rows) == 0 && key != "" {
			return nil, notFound
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].Path < rows[j].Path })
		return envelopeOf(rows)

	case http.MethodHead:
		if _, ok := objs[key]; ok {
			return nil, nil
		}
		if _, ok := objs[key+"/"]; ok {
			return nil, nil
		}
		return nil, notFound

	case http.MethodDelete:
		if _, ok := objs[key]; ok {
			delete(objs, key)
			return nil, nil
		}
		if _, ok := objs[key+"/"]; ok {
			delete(objs, key+"/")
			return nil, nil
		}
		return nil, notFound

	case http.MethodPatch:
		target := body.(MoveRequest).NewPath
		src, ok := resolve(objs, key)
		if !ok {
			return nil, notFound
		}
		row := objs[src]
		if strings.HasSuffix(src, "/") && !strings.HasSuffix(target, "/") {
			target += "/"
		}
		delete(objs, src)
		row.Path = target
		objs[target] = row
		return nil, nil

	case http.MethodPut:
		if cp, ok := body.(CopyRequest); ok {
			src, ok := resolve(objs, key)
			if !ok {
				return nil, notFound
			}
			target := cp.ToPath
			if strings.HasSuffix(src, "/") && !strings.HasSuffix(target, "/") {
				target += "/"
			}
			dst, ok := f.objects[cp.ToDrive]
			if !ok {
				return nil, errors.New(errors.CodeNotFound, "drive not found")
			}
			row := objs[src]
			row.Path = target
			dst[target] = row
			return nil, nil
		}
		save := body.(SaveRequest)
		row := Row{Path: key, LastModified: epoch, Size: int64(len(save.Content))}
		objs[key] = row
		return envelopeOf(row)

	case http.MethodPost:
		if _, ok := body.(PresignRequest); ok {
			return envelopeOf(LinkResponse{URL: "https://example.test/" + drive + "/" + key})
		}
		create := body.(CreateRequest)
		if create.IsDir {
			key += "/"
		}
		row := Row{Path: key, LastModified: epoch}
		objs[key] = row
		return envelopeOf(row)
	}
	return nil, errors.New(errors.CodeUnsupported, "method not allowed")
}

func resolve(objs map[string]Row, key string) (string, bool) {
	if _, ok := objs[key]; ok {
		return key, true
	}
	if _, ok := objs[key+"/"]; ok {
		return key + "/", true
	}
	return "", false
}

func envelopeOf(v any) (json.RawMessage, error) {
	return json.Marshal(envelope[any]{Data: v})
}
