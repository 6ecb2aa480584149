// Package cli is the process-embedded command surface: every operation
// reachable over HTTP is also reachable here, calling storage/ops/the AI
// orchestrator directly with no loopback hop.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/deco-run/deco-core/internal/aiorchestrator"
	"github.com/deco-run/deco-core/internal/appconfig"
	"github.com/deco-run/deco-core/internal/events"
	"github.com/deco-run/deco-core/internal/importer"
	"github.com/deco-run/deco-core/internal/secrets"
	"github.com/deco-run/deco-core/internal/storage"
)

// clipModelFilename is the asset name expected under the configured models
// folder; the embedder fails with an inference error if it is absent and
// does not download it.
const clipModelFilename = "clip-vit-b32.onnx"

// defaultPoolSize bounds concurrent blocking SQLite/CLIP calls a single CLI
// invocation may issue at once. Short-lived command runs rarely need more.
const defaultPoolSize = 4

// Printer renders a command's result either as indented JSON or through a
// human-readable callback, selected by the --json flag.
type Printer struct {
	out        io.Writer
	jsonOutput bool
}

func NewPrinter(out io.Writer, jsonOutput bool) *Printer {
	return &Printer{out: out, jsonOutput: jsonOutput}
}

func (p *Printer) Println(a ...any)               { fmt.Fprintln(p.out, a...) }
func (p *Printer) Printf(format string, a ...any) { fmt.Fprintf(p.out, format, a...) }

// Result writes v as JSON when --json is set, otherwise calls render for
// the tabular/line-oriented human form.
func (p *Printer) Result(v any, render func()) error {
	if p.jsonOutput {
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	render()
	return nil
}

var errorLabel = color.New(color.FgRed, color.Bold).SprintFunc()

func (p *Printer) PrintError(err error) {
	fmt.Fprintf(p.out, "%s %s\n", errorLabel("error:"), err)
}

// runtime bundles the collaborators every command needs, opened fresh for
// the lifetime of one invocation.
type runtime struct {
	storage  storage.Provider
	secrets  *secrets.Store
	importer *importer.Importer
	emit     *events.Emitter
	printer  *Printer
}

func newRuntime(out io.Writer, jsonOutput bool) (*runtime, error) {
	cfg, err := appconfig.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	modelPath := filepath.Join(cfg.ModelsFolder, clipModelFilename)
	store := storage.New(modelPath, defaultPoolSize)

	secretStore, err := secrets.Open()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open secrets store: %w", err)
	}

	emit := events.New()
	return &runtime{
		storage:  store,
		secrets:  secretStore,
		importer: importer.New(store, importer.WithEmitter(emit)),
		emit:     emit,
		printer:  NewPrinter(out, jsonOutput),
	}, nil
}

func (r *runtime) Close() error {
	return r.storage.Close()
}

func (r *runtime) newOrchestrator(ctx context.Context) (*aiorchestrator.Orchestrator, error) {
	cfg, err := r.storage.ReadAppConfig(ctx)
	if err != nil {
		return nil, err
	}
	provider, err := aiorchestrator.NewProvider(cfg.AI, r.secrets.Get)
	if err != nil {
		return nil, err
	}
	return aiorchestrator.New(provider, r.storage, r.emit), nil
}
