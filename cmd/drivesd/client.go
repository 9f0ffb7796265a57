package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/gobwas/glob"
	"go.uber.org/zap"

	"github.com/jmgilman/go/drives/config"
	"github.com/jmgilman/go/drives/contents"
	"github.com/jmgilman/go/drives/drive"
	"github.com/jmgilman/go/drives/errors"
	"github.com/jmgilman/go/drives/gateway"
	"github.com/jmgilman/go/drives/naming"
	"github.com/jmgilman/go/drives/registry"
	"github.com/jmgilman/go/drives/transport"
)

func newDrive(ctx context.Context, cfg *config.Config, logger *zap.Logger, serverURL string) (*drive.Drive, error) {
	client, err := transport.New(transport.Config{
		BaseURL:   serverURL,
		Namespace: cfg.Server.Namespace,
		Token:     cfg.Server.Token,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	gw := gateway.New(client,
		gateway.WithLogger(logger),
		gateway.WithConcurrency(cfg.Limits.Concurrency),
	)
	reg := registry.New(gw, registry.WithLogger(logger))
	if _, err := reg.Discover(ctx); err != nil {
		return nil, err
	}

	return drive.New(reg,
		drive.WithLogger(logger),
		drive.WithNotifier(func(n drive.Notice) {
			fmt.Fprintf(os.Stderr, "%s: %s\n", n.Level, n.Message)
		}),
	), nil
}

func runClient(ctx context.Context, cfg *config.Config, logger *zap.Logger, serverURL, command string, args []string) error {
	d, err := newDrive(ctx, cfg, logger, serverURL)
	if err != nil {
		return err
	}

	switch command {
	case "drives":
		return printJSON(d.Drives())
	case "ls":
		return list(ctx, d, args)
	case "cat":
		path, err := arg(args, 0, "PATH")
		if err != nil {
			return err
		}
		model, err := d.Get(ctx, path, drive.GetOptions{Content: true})
		if err != nil {
			return err
		}
		if model.IsDir() {
			return errors.WithContext(errors.New(errors.CodeInvalidInput, "is a directory"), "path", path)
		}
		fmt.Print(model.Text())
		return nil
	case "put":
		return put(ctx, d, args)
	case "rm":
		path, err := arg(args, 0, "PATH")
		if err != nil {
			return err
		}
		return d.Delete(ctx, path)
	case "mv":
		if len(args) != 2 {
			return errors.New(errors.CodeInvalidInput, "usage: mv OLD NEW")
		}
		return printModel(d.Rename(ctx, args[0], args[1]))
	case "cp":
		if len(args) != 2 {
			return errors.New(errors.CodeInvalidInput, "usage: cp PATH DIR")
		}
		return printModel(d.Copy(ctx, args[0], args[1]))
	case "new":
		return newUntitled(ctx, d, args)
	case "url":
		path, err := arg(args, 0, "PATH")
		if err != nil {
			return err
		}
		link, err := d.GetDownloadURL(ctx, path)
		if err != nil {
			return err
		}
		fmt.Println(link)
		return nil
	case "create":
		name, err := arg(args, 0, "NAME")
		if err != nil {
			return err
		}
		region := ""
		if len(args) > 1 {
			region = args[1]
		}
		return printModel(d.NewDrive(ctx, name, region))
	}
	return errors.Newf(errors.CodeInvalidInput, "unknown command %q", command)
}

func list(ctx context.Context, d *drive.Drive, args []string) error {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	match := fs.String("match", "", "only show entries whose name matches this glob")
	if err := fs.Parse(args); err != nil {
		return errors.Wrap(err, errors.CodeInvalidInput, "invalid arguments")
	}
	path, err := arg(fs.Args(), 0, "PATH")
	if err != nil {
		return err
	}

	var g glob.Glob
	if *match != "" {
		if g, err = glob.Compile(*match); err != nil {
			return errors.WithContext(errors.Wrap(err, errors.CodeInvalidInput, "invalid pattern"), "pattern", *match)
		}
	}

	model, err := d.Get(ctx, path, drive.GetOptions{})
	if err != nil {
		return err
	}
	entries := model.Children()
	if !model.IsDir() {
		entries = []contents.Model{*model}
	}
	for _, entry := range entries {
		if g != nil && !g.Match(entry.Name) {
			continue
		}
		fmt.Printf("%-9s %s\n", entry.Type, entry.Path)
	}
	return nil
}

func put(ctx context.Context, d *drive.Drive, args []string) error {
	if len(args) != 2 {
		return errors.New(errors.CodeInvalidInput, "usage: put PATH FILE")
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return errors.WrapWithContext(err, errors.CodeInvalidInput, "failed to read file",
			map[string]interface{}{"file": args[1]})
	}

	ft := d.FileTypes().ClassifyName(args[0])
	opts := drive.SaveOptions{Format: ft.Format, Type: ft.Type, Content: string(data)}
	if ft.Format == contents.FormatBase64 {
		opts.Content = base64.StdEncoding.EncodeToString(data)
	}
	return printModel(d.Save(ctx, args[0], opts))
}

func newUntitled(ctx context.Context, d *drive.Drive, args []string) error {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	kind := fs.String("kind", string(naming.KindFile), "file, notebook or directory")
	ext := fs.String("ext", "", "file extension")
	if err := fs.Parse(args); err != nil {
		return errors.Wrap(err, errors.CodeInvalidInput, "invalid arguments")
	}
	dir, err := arg(fs.Args(), 0, "DIR")
	if err != nil {
		return err
	}
	return printModel(d.NewUntitled(ctx, drive.UntitledOptions{
		Path: dir,
		Kind: naming.Kind(*kind),
		Ext:  *ext,
	}))
}

func arg(args []string, i int, name string) (string, error) {
	if len(args) <= i {
		return "", errors.Newf(errors.CodeInvalidInput, "missing %s argument", name)
	}
	return args[i], nil
}

// printModel prints model even when err is set; mutations report the entry
// they left behind.
func printModel(model *contents.Model, err error) error {
	if model != nil {
		if perr := printJSON(model); perr != nil {
			return perr
		}
	}
	return err
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
