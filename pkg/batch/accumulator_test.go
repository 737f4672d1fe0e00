package batch_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/molgrid/pkg/batch"
	"github.com/matzehuels/molgrid/pkg/errors"
	"github.com/matzehuels/molgrid/pkg/mol"
	"github.com/matzehuels/molgrid/pkg/observability"
	"github.com/matzehuels/molgrid/pkg/options"
	"github.com/matzehuels/molgrid/pkg/render"
	"github.com/matzehuels/molgrid/pkg/render/rendertest"
	"github.com/matzehuels/molgrid/pkg/table"
)

// spyRenderer records the batches it is handed.
type spyRenderer struct {
	grids  []table.Grid
	titles [][]string
	err    error
}

func (s *spyRenderer) RenderAll(_ context.Context, mols []*mol.Molecule, grid table.Grid, _ *options.Set) error {
	var titles []string
	for _, m := range mols {
		titles = append(titles, m.Title)
	}
	s.grids = append(s.grids, grid)
	s.titles = append(s.titles, titles)
	return s.err
}

func mustOptions(t *testing.T, pairs ...string) *options.Set {
	t.Helper()
	s, err := options.Parse(pairs)
	require.NoError(t, err)
	return s
}

func structures(n int) []*mol.Molecule {
	out := make([]*mol.Molecule, n)
	for i := range out {
		out[i] = rendertest.Laid(fmt.Sprintf("m%d", i+1), 2)
	}
	return out
}

func TestSubmitPendingUntilLast(t *testing.T) {
	spy := &spyRenderer{}
	acc := batch.NewAccumulator(spy)
	opts := options.New()
	ms := structures(3)

	for i, m := range ms {
		out, err := acc.Submit(context.Background(), m, batch.Record{Index: i + 1, Last: i == 2, Options: opts})
		require.NoError(t, err)
		if i < 2 {
			assert.Equal(t, batch.Pending, out)
			assert.Equal(t, i+1, acc.Pending())
		} else {
			assert.Equal(t, batch.BatchComplete, out)
		}
	}

	require.Len(t, spy.grids, 1)
	assert.Equal(t, table.Grid{Rows: 2, Cols: 2}, spy.grids[0])
	assert.Equal(t, []string{"m1", "m2", "m3"}, spy.titles[0])
	assert.Equal(t, 0, acc.Pending())
	for _, m := range ms {
		assert.True(t, m.Released(), "%s not released", m.Title)
	}
}

func TestSubmitEarlyStopAtCapacity(t *testing.T) {
	spy := &spyRenderer{}
	acc := batch.NewAccumulator(spy)
	opts := mustOptions(t, "r=2", "c=3")
	ms := structures(6)

	for i, m := range ms[:5] {
		out, err := acc.Submit(context.Background(), m, batch.Record{Index: i + 1, Options: opts})
		require.NoError(t, err)
		assert.Equal(t, batch.Pending, out)
	}
	out, err := acc.Submit(context.Background(), ms[5], batch.Record{Index: 6, Last: false, Options: opts})
	require.NoError(t, err)
	assert.Equal(t, batch.EarlyStop, out)

	require.Len(t, spy.grids, 1)
	assert.Equal(t, table.Grid{Rows: 2, Cols: 3}, spy.grids[0])
	assert.Len(t, spy.titles[0], 6)
}

func TestSubmitCapacityOnLastRecordIsComplete(t *testing.T) {
	spy := &spyRenderer{}
	acc := batch.NewAccumulator(spy)
	opts := mustOptions(t, "N=2")
	ms := structures(2)

	_, err := acc.Submit(context.Background(), ms[0], batch.Record{Index: 1, Options: opts})
	require.NoError(t, err)
	out, err := acc.Submit(context.Background(), ms[1], batch.Record{Index: 2, Last: true, Options: opts})
	require.NoError(t, err)
	assert.Equal(t, batch.BatchComplete, out)
}

func TestMaxCountRules(t *testing.T) {
	tests := []struct {
		name  string
		pairs []string
		n     int
		want  int // submissions before the batch completes
	}{
		{"rows and cols", []string{"r=2", "c=2"}, 10, 4},
		{"rows and cols win over N", []string{"r=1", "c=3", "N=5"}, 10, 3},
		{"N only", []string{"N=5"}, 10, 5},
		{"rows only is unbounded", []string{"r=2"}, 7, 7},
		{"nothing is unbounded", nil, 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := &spyRenderer{}
			acc := batch.NewAccumulator(spy)
			opts := mustOptions(t, tt.pairs...)

			submitted := 0
			for i, m := range structures(tt.n) {
				out, err := acc.Submit(context.Background(), m, batch.Record{Index: i + 1, Last: i == tt.n-1, Options: opts})
				require.NoError(t, err)
				submitted++
				if out != batch.Pending {
					break
				}
			}
			assert.Equal(t, tt.want, submitted)
			require.Len(t, spy.titles, 1)
			assert.Len(t, spy.titles[0], tt.want)
		})
	}
}

func TestRecordsAfterEarlyStopNeedIndexReset(t *testing.T) {
	spy := &spyRenderer{}
	acc := batch.NewAccumulator(spy)
	opts := mustOptions(t, "r=2", "c=3")
	ms := structures(9)

	for i := 0; i < 6; i++ {
		_, err := acc.Submit(context.Background(), ms[i], batch.Record{Index: i + 1, Options: opts})
		require.NoError(t, err)
	}

	// Records 7 and 8 keep the stream's numbering: they are buffered without
	// the r/c constraints and without a cap.
	out, err := acc.Submit(context.Background(), ms[6], batch.Record{Index: 7, Options: opts})
	require.NoError(t, err)
	assert.Equal(t, batch.Pending, out)
	out, err = acc.Submit(context.Background(), ms[7], batch.Record{Index: 8, Last: true, Options: opts})
	require.NoError(t, err)
	assert.Equal(t, batch.BatchComplete, out)
	require.Len(t, spy.grids, 2)
	assert.Equal(t, table.Grid{Rows: 1, Cols: 2}, spy.grids[1])

	// A reset index starts a fresh, constrained batch.
	out, err = acc.Submit(context.Background(), ms[8], batch.Record{Index: 1, Last: true, Options: opts})
	require.NoError(t, err)
	assert.Equal(t, batch.BatchComplete, out)
	assert.Equal(t, table.Grid{Rows: 2, Cols: 3}, spy.grids[2])
}

func TestIndexOneDiscardsOpenBatch(t *testing.T) {
	spy := &spyRenderer{}
	acc := batch.NewAccumulator(spy)
	ms := structures(3)

	_, err := acc.Submit(context.Background(), ms[0], batch.Record{Index: 1})
	require.NoError(t, err)
	_, err = acc.Submit(context.Background(), ms[1], batch.Record{Index: 2})
	require.NoError(t, err)

	_, err = acc.Submit(context.Background(), ms[2], batch.Record{Index: 1, Last: true})
	require.NoError(t, err)

	assert.True(t, ms[0].Released())
	assert.True(t, ms[1].Released())
	require.Len(t, spy.titles, 1)
	assert.Equal(t, []string{"m3"}, spy.titles[0])
}

func TestNonStructureAbortsBatch(t *testing.T) {
	spy := &spyRenderer{}
	acc := batch.NewAccumulator(spy)
	ms := structures(2)

	_, err := acc.Submit(context.Background(), ms[0], batch.Record{Index: 1})
	require.NoError(t, err)
	_, err = acc.Submit(context.Background(), ms[1], batch.Record{Index: 2})
	require.NoError(t, err)

	rxn := &mol.Unsupported{Kind: "reaction"}
	out, err := acc.Submit(context.Background(), rxn, batch.Record{Index: 3, Last: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	assert.Equal(t, batch.Pending, out)

	assert.Empty(t, spy.grids, "no image after an abort")
	assert.True(t, ms[0].Released())
	assert.True(t, ms[1].Released())
	assert.True(t, rxn.Released())
	assert.Equal(t, 0, acc.Pending())
}

func TestCoordinateFailureReleasesAndTagsStructure(t *testing.T) {
	painter := &rendertest.Painter{Image: []byte("img")}
	var out bytes.Buffer
	gen := &rendertest.Coords{Fail: map[string]error{"second": fmt.Errorf("no layout")}}
	r := render.New(painter, &out, render.WithCoordGenerator(gen))
	acc := batch.NewAccumulator(r)

	first := rendertest.Flat("first", 3)
	second := rendertest.Flat("second", 3)
	_, err := acc.Submit(context.Background(), first, batch.Record{Index: 1})
	require.NoError(t, err)
	_, err = acc.Submit(context.Background(), second, batch.Record{Index: 2, Last: true})
	require.Error(t, err)

	assert.True(t, errors.Is(err, errors.ErrCodeRender))
	assert.Contains(t, err.Error(), "second")
	assert.Zero(t, painter.Count("WriteImage"))
	assert.Zero(t, out.Len())
	assert.True(t, first.Released())
	assert.True(t, second.Released())
}

func TestExplicitOneByOneCapsBatch(t *testing.T) {
	painter := &rendertest.Painter{}
	r := render.New(painter, &bytes.Buffer{})
	acc := batch.NewAccumulator(r)
	opts := mustOptions(t, "r=1", "c=1")

	// r=1,c=1 caps the batch at one structure.
	out, err := acc.Submit(context.Background(), rendertest.Laid("a", 2), batch.Record{Index: 1, Options: opts})
	require.NoError(t, err)
	assert.Equal(t, batch.EarlyStop, out)
	assert.Equal(t, []any{1, 1}, painter.Filter("SetTableSize")[0].Args)
}

func TestWriteOneForcesSingleCell(t *testing.T) {
	spy := &spyRenderer{}
	acc := batch.NewAccumulator(spy)
	m := rendertest.Laid("solo", 2)

	err := acc.WriteOne(context.Background(), m, mustOptions(t, "r=3", "c=4"))
	require.NoError(t, err)
	assert.Equal(t, []table.Grid{{Rows: 1, Cols: 1}}, spy.grids)
	assert.True(t, m.Released())

	rxn := &mol.Unsupported{Kind: "text"}
	err = acc.WriteOne(context.Background(), rxn, nil)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	assert.True(t, rxn.Released())
}

func TestCloseReleasesOpenBatch(t *testing.T) {
	acc := batch.NewAccumulator(&spyRenderer{})
	m := rendertest.Laid("open", 2)
	_, err := acc.Submit(context.Background(), m, batch.Record{Index: 1})
	require.NoError(t, err)

	acc.Close()
	assert.True(t, m.Released())
	assert.Equal(t, 0, acc.Pending())
	acc.Close()
}

func TestBatchHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetBatchHooks(hooks)
	t.Cleanup(observability.Reset)

	acc := batch.NewAccumulator(&spyRenderer{})
	opts := mustOptions(t, "N=2")
	ms := structures(2)
	_, _ = acc.Submit(context.Background(), ms[0], batch.Record{Index: 1, Options: opts})
	_, _ = acc.Submit(context.Background(), ms[1], batch.Record{Index: 2, Options: opts})

	assert.Equal(t, 1, hooks.started)
	assert.Equal(t, 2, hooks.completed)
	assert.Equal(t, 2, hooks.stopped)
}

type recordingHooks struct {
	observability.NoopBatchHooks
	started, completed, stopped int
}

func (h *recordingHooks) OnBatchStart(context.Context, string) { h.started++ }

func (h *recordingHooks) OnBatchComplete(_ context.Context, _ string, count int, _ time.Duration, _ error) {
	h.completed = count
}

func (h *recordingHooks) OnEarlyStop(_ context.Context, _ string, count int) { h.stopped = count }

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "pending", batch.Pending.String())
	assert.Equal(t, "complete", batch.BatchComplete.String())
	assert.Equal(t, "early-stop", batch.EarlyStop.String())
}
