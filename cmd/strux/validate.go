package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	strux "github.com/strux-go/strux"
	"github.com/strux-go/strux/dsl"
	"github.com/strux-go/strux/schemafile"
)

func loadSchema() (dsl.Schema, error) {
	start := time.Now()
	s, diag, err := schemafile.LoadFile(schemaPath, schemafile.Options{})
	if err != nil {
		return nil, err
	}
	for _, w := range diag.Warnings() {
		logger.Warn("schema document warning",
			zap.String("schema", schemaPath),
			zap.String("warning", w))
	}
	logger.Debug("schema loaded",
		zap.String("schema", schemaPath),
		zap.Duration("took", time.Since(start)))
	return s, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	s, err := loadSchema()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	failed := validateAll(ctx, s, args)
	if watchMode {
		return watchAndValidate(ctx, args)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) invalid", failed, len(args))
	}
	return nil
}

func validateAll(ctx context.Context, s dsl.Schema, paths []string) int {
	failed := 0
	for _, p := range paths {
		if !validateFile(ctx, s, p) {
			failed++
		}
	}
	return failed
}

func validateFile(ctx context.Context, s dsl.Schema, path string) bool {
	start := time.Now()
	v, err := decodeDataFile(path)
	if err != nil {
		renderLoadError(os.Stdout, path, err)
		return false
	}
	var opts []strux.ParseOpt
	if abortEarly {
		opts = append(opts, strux.ParseOpt{AbortEarly: strux.Bool(true)})
	}
	res := s.SafeParse(ctx, v, opts...)
	logger.Debug("validated",
		zap.String("file", path),
		zap.Bool("ok", res.OK),
		zap.Int("issues", len(res.Err)),
		zap.Duration("took", time.Since(start)))
	switch formatName {
	case "json":
		renderJSON(os.Stdout, path, res)
	default:
		renderPretty(os.Stdout, path, res)
	}
	return res.OK
}

func decodeDataFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return strux.FromYAML(data)
	case ".toml":
		return strux.FromTOML(data)
	case ".msgpack", ".mp":
		return strux.FromMsgpack(data)
	default:
		return strux.FromJSON(data)
	}
}

// watchAndValidate re-runs validation whenever the schema document or one of
// the data files changes. The schema is reloaded on every event so edits to
// it apply immediately.
func watchAndValidate(ctx context.Context, paths []string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	abs := func(p string) string {
		a, err := filepath.Abs(p)
		if err != nil {
			return p
		}
		return a
	}
	targets := map[string]bool{abs(schemaPath): true}
	for _, p := range paths {
		targets[abs(p)] = true
	}
	// editors replace files rather than writing in place, so watch the
	// parent directories and filter events by name
	dirs := map[string]bool{}
	for t := range targets {
		dirs[filepath.Dir(t)] = true
	}
	for d := range dirs {
		if err := w.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("watching for changes (interrupt to stop)")
	last := map[string]time.Time{}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			p := abs(ev.Name)
			if !targets[p] {
				continue
			}
			if t, seen := last[p]; seen && time.Since(t) < 200*time.Millisecond {
				continue
			}
			last[p] = time.Now()
			logger.Debug("change detected", zap.String("file", p))
			s, err := loadSchema()
			if err != nil {
				fmt.Fprintf(os.Stderr, "schema reload failed: %v\n", err)
				continue
			}
			if p == abs(schemaPath) {
				validateAll(ctx, s, paths)
				continue
			}
			for _, orig := range paths {
				if abs(orig) == p {
					validateFile(ctx, s, orig)
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		}
	}
}
