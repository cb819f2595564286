package operator

import (
	"github.com/kodekit/colexec/column"
	"github.com/kodekit/colexec/engine"
)

// ProjectColumn names one output column of a Project operator: Source
// is the input column name, Target overrides its output name (empty
// keeps Source).
type ProjectColumn struct {
	Source string
	Target string
}

// Project reorders/renames/subsets an input chunk's columns (spec
// ch. 4.4.2). Grounded on the teacher's Schema.Project-style column
// subsetting, adapted into an operator that captures resolved source
// indices once at construction.
type Project struct {
	outputSchema *column.Schema
	sourceIdx    []int
}

// NewProject validates each source exists and target names are unique,
// and builds the output schema.
func NewProject(cols []ProjectColumn, inputSchema *column.Schema) (*Project, error) {
	sourceIdx := make([]int, len(cols))
	defs := make([]column.ColumnDef, len(cols))
	seen := make(map[string]bool, len(cols))
	for i, pc := range cols {
		idx, err := inputSchema.ColumnIndex(pc.Source)
		if err != nil {
			return nil, engine.WithCode(engine.ErrColumnNotFound, err)
		}
		name := pc.Target
		if name == "" {
			name = pc.Source
		}
		if seen[name] {
			return nil, engine.Errorf(engine.ErrDuplicateColumn, "duplicate output column %q", name)
		}
		seen[name] = true
		sourceIdx[i] = idx
		cd := inputSchema.Column(idx)
		defs[i] = column.ColumnDef{Name: name, Type: cd.Type}
	}
	schema, err := column.NewSchema(defs...)
	if err != nil {
		return nil, err
	}
	return &Project{outputSchema: schema, sourceIdx: sourceIdx}, nil
}

func (p *Project) Name() string                 { return "project" }
func (p *Project) OutputSchema() *column.Schema { return p.outputSchema }

func (p *Project) Process(chunk *column.Chunk) (OperatorResult, error) {
	cols := make([]*column.ColumnBuffer, len(p.sourceIdx))
	for i, idx := range p.sourceIdx {
		cols[i] = chunk.Column(idx)
	}
	out := column.NewProjectedChunk(p.outputSchema, chunk.Dictionary(), cols, chunk.Selection())
	return OperatorResult{Chunk: out}, nil
}

func (p *Project) Finish() (OperatorResult, error) { return OperatorResult{}, nil }

func (p *Project) Reset() {}
