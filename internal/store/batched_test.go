package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/lintel/internal/analysis"
	"github.com/jward/lintel/internal/descriptor"
	"github.com/jward/lintel/internal/syntax"
)

func testDescriptor() *descriptor.Descriptor {
	return &descriptor.Descriptor{
		ID:              "S1656",
		MessageFormat:   "Remove this self-assignment of '%s'.",
		DefaultSeverity: descriptor.Warning,
	}
}

func loc(path string, line, col, start int) syntax.Location {
	return syntax.Location{Path: path, Span: syntax.Span{
		StartByte: start, EndByte: start + 1,
		Start: syntax.Position{Line: line, Column: col},
		End:   syntax.Position{Line: line, Column: col + 1},
	}}
}

func TestBatchedStore_FakeIDs(t *testing.T) {
	t.Parallel()
	batch := NewBatchedStore(7)

	id1, err := batch.InsertDiagnostic(&Diagnostic{FileID: 7, RuleID: "S1"})
	require.NoError(t, err)
	assert.Equal(t, int64(-1), id1)
	id2, err := batch.InsertFault(&Fault{FileID: 7, RuleID: "S2"})
	require.NoError(t, err)
	assert.Equal(t, int64(-2), id2)

	_, err = batch.InsertDiagnostic(&Diagnostic{FileID: 8, RuleID: "S1"})
	assert.Error(t, err, "rows for another file are rejected")
}

func TestBatchedStore_AcceptConvertsDiagnostics(t *testing.T) {
	t.Parallel()
	batch := NewBatchedStore(3)

	d := analysis.NewDiagnosticAt(testDescriptor(), loc("/A.cs", 4, 9, 40), "x")
	d.AdditionalLocations = []syntax.Location{loc("", 4, 13, 44)}
	d = d.WithProperty("variable", "x")
	batch.Accept(d)

	require.Equal(t, 1, batch.Len())
	row := batch.Diagnostics[0]
	assert.Equal(t, int64(3), row.FileID)
	assert.Equal(t, "S1656", row.RuleID)
	assert.Equal(t, "warning", row.Severity)
	assert.Equal(t, "Remove this self-assignment of 'x'.", row.Message)
	assert.Equal(t, 4, row.StartLine)
	assert.Equal(t, 9, row.StartCol)
	assert.Equal(t, 40, row.StartByte)
	require.Len(t, row.Locations, 1)
	assert.Equal(t, "/A.cs", row.Locations[0].Path, "secondary path defaults to the primary")
	assert.Equal(t, 13, row.Locations[0].StartCol)
	assert.Equal(t, "x", row.Properties["variable"])
}

func TestBatchedStore_AcceptFault(t *testing.T) {
	t.Parallel()
	batch := NewBatchedStore(3)

	var handler analysis.FaultHandler = batch.AcceptFault
	handler(analysis.RuleFault{RuleID: "S9", Location: loc("/A.cs", 2, 1, 10), Value: "boom", Stack: []byte("stack")})

	require.Len(t, batch.Faults, 1)
	f := batch.Faults[0]
	assert.Equal(t, "S9", f.RuleID)
	assert.Equal(t, 2, f.Line)
	assert.Equal(t, "boom", f.Value)
	assert.Equal(t, "stack", f.Stack)
}

func TestBatchedStore_ConcurrentAccept(t *testing.T) {
	t.Parallel()
	batch := NewBatchedStore(1)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			batch.Accept(analysis.NewDiagnosticAt(testDescriptor(), loc("/A.cs", i+1, 1, i), "x"))
		}()
	}
	wg.Wait()

	require.Equal(t, 50, batch.Len())
	seen := make(map[int64]bool)
	for _, d := range batch.Diagnostics {
		assert.Negative(t, d.ID)
		assert.False(t, seen[d.ID], "fake IDs are unique")
		seen[d.ID] = true
	}
}

func TestCommitBatch_RemapsAndReplaces(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/A.cs", "csharp")

	_, err := s.InsertDiagnostic(testDiagnostic(f.ID, "OLD", 1))
	require.NoError(t, err)

	batch := NewBatchedStore(f.ID)
	d := analysis.NewDiagnosticAt(testDescriptor(), loc("/A.cs", 4, 9, 40), "x")
	d.AdditionalLocations = []syntax.Location{loc("/A.cs", 4, 13, 44)}
	batch.Accept(d)
	batch.Accept(analysis.NewDiagnosticAt(testDescriptor(), loc("/A.cs", 2, 1, 10), "y"))
	batch.AcceptFault(analysis.RuleFault{RuleID: "S9", Location: loc("/A.cs", 3, 1, 30), Value: "boom"})

	require.NoError(t, s.CommitBatch(batch))

	for _, row := range batch.Diagnostics {
		assert.Positive(t, row.ID, "fake IDs remapped")
		for _, l := range row.Locations {
			assert.Equal(t, row.ID, l.DiagnosticID)
		}
	}
	assert.Positive(t, batch.Faults[0].ID)

	diags, err := s.DiagnosticsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, diags, 2, "previous results replaced")
	assert.Equal(t, "Remove this self-assignment of 'y'.", diags[0].Message)
	require.Len(t, diags[1].Locations, 1)
	assert.Equal(t, 13, diags[1].Locations[0].StartCol)

	faults, err := s.Faults()
	require.NoError(t, err)
	require.Len(t, faults, 1)
	assert.Equal(t, "S9", faults[0].RuleID)
}

func TestCommitBatch_Empty(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/A.cs", "csharp")
	_, err := s.InsertDiagnostic(testDiagnostic(f.ID, "OLD", 1))
	require.NoError(t, err)

	require.NoError(t, s.CommitBatch(NewBatchedStore(f.ID)))
	diags, err := s.DiagnosticsByFile(f.ID)
	require.NoError(t, err)
	assert.Empty(t, diags)
}
