package mindmap

import (
	"errors"
	"fmt"

	"github.com/01moynul/renovation-mindmap/internal/logger"
	"github.com/01moynul/renovation-mindmap/internal/models"
)

// Kind tags which ingestion path produced a Tree.
type Kind string

const (
	KindFlat     Kind = "flat"
	KindMarkdown Kind = "markdown"
	KindSample   Kind = "sample"
)

// Tree is either a flat-row tree or a Markdown outline; exactly one of the
// pointers is set, matching Kind (KindSample uses Flat).
type Tree struct {
	Kind     Kind                 `json:"kind"`
	Flat     *models.TreeNode     `json:"flat,omitempty"`
	Markdown *models.MarkdownNode `json:"markdown,omitempty"`
}

var (
	ErrUnsupportedInput = errors.New("unsupported input type")
	ErrEmptyInput       = errors.New("empty record set")
	ErrNoRoot           = errors.New("no root record (parent_id null) found")
	ErrParsePanic       = errors.New("panic while building tree")
)

// BuildError reports which stage of the build failed.
type BuildError struct {
	Stage string
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("mindmap %s: %v", e.Stage, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// Builder is the entry point that turns any supported input into a tree.
// It holds no per-call state and is safe for concurrent use.
type Builder struct {
	log *logger.Logger
}

func NewBuilder(log *logger.Logger) *Builder {
	if log == nil {
		log = logger.Nop()
	}
	return &Builder{log: log.With("component", "mindmap.builder")}
}

// Build never fails: any error from TryBuild is logged and replaced by the
// sample tree.
func (b *Builder) Build(input any) Tree {
	tree, err := b.TryBuild(input)
	if err != nil {
		b.log.Warn("falling back to sample tree", "error", err)
		return Tree{Kind: KindSample, Flat: SampleTree()}
	}
	return tree
}

// TryBuild dispatches on the runtime type of input:
// Markdown text goes to ParseMarkdown, row sets go to Assemble, a nested
// object decoded from JSON is converted by NestedTree and an already nested
// TreeNode is passed through.
func (b *Builder) TryBuild(input any) (tree Tree, err error) {
	defer func() {
		if r := recover(); r != nil {
			tree = Tree{}
			err = &BuildError{Stage: "recover", Err: fmt.Errorf("%w: %v", ErrParsePanic, r)}
		}
	}()

	switch v := input.(type) {
	case string:
		return b.fromMarkdown(v)
	case []byte:
		return b.fromMarkdown(string(v))
	case []models.FlatRecord:
		return b.fromRecords(v)
	case []RawRecord:
		return b.fromRecords(NormalizeAll(v))
	case []map[string]any:
		raws := make([]RawRecord, len(v))
		for i := range v {
			raws[i] = v[i]
		}
		return b.fromRecords(NormalizeAll(raws))
	case []any:
		raws := make([]RawRecord, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return Tree{}, &BuildError{Stage: "dispatch", Err: fmt.Errorf("%w: row of type %T", ErrUnsupportedInput, item)}
			}
			raws = append(raws, m)
		}
		return b.fromRecords(NormalizeAll(raws))
	case map[string]any:
		return b.fromNested(v)
	case RawRecord:
		return b.fromNested(v)
	case *models.TreeNode:
		if v == nil {
			return Tree{}, &BuildError{Stage: "dispatch", Err: ErrUnsupportedInput}
		}
		return Tree{Kind: KindFlat, Flat: v}, nil
	case models.TreeNode:
		return Tree{Kind: KindFlat, Flat: &v}, nil
	default:
		return Tree{}, &BuildError{Stage: "dispatch", Err: fmt.Errorf("%w: %T", ErrUnsupportedInput, input)}
	}
}

func (b *Builder) fromMarkdown(text string) (Tree, error) {
	root, err := ParseMarkdown(text)
	if err != nil {
		return Tree{}, &BuildError{Stage: "markdown", Err: err}
	}
	return Tree{Kind: KindMarkdown, Markdown: root}, nil
}

func (b *Builder) fromNested(obj map[string]any) (Tree, error) {
	root, err := NestedTree(obj)
	if err != nil {
		return Tree{}, &BuildError{Stage: "nested", Err: err}
	}
	return Tree{Kind: KindFlat, Flat: root}, nil
}

func (b *Builder) fromRecords(records []models.FlatRecord) (Tree, error) {
	if len(records) == 0 {
		return Tree{}, &BuildError{Stage: "assemble", Err: ErrEmptyInput}
	}

	res := Assemble(records)
	if res.Skipped > 0 {
		b.log.Warn("skipped rows without a numeric node_id", "count", res.Skipped)
	}
	if len(res.Orphans) > 0 {
		b.log.Warn("dropped orphan nodes", "count", len(res.Orphans), "node_ids", res.Orphans)
	}
	if len(res.RootCandidates) > 1 {
		b.log.Warn("several parentless rows, last one is the root", "candidates", res.RootCandidates)
	}
	if res.Root == nil {
		return Tree{}, &BuildError{Stage: "assemble", Err: ErrNoRoot}
	}
	return Tree{Kind: KindFlat, Flat: res.Root}, nil
}
