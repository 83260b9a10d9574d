package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testDAG = `
steps:
  snapshot/who/2024-01-03/gho:
  meadow/who/2024-01-03/gho:
    - snapshot/who/2024-01-03/gho
  garden/who/2024-01-03/gho:
    - meadow/who/2024-01-03/gho
  grapher/who/2024-01-03/gho:
    - garden/who/2024-01-03/gho
  garden/wb/2024-02-10/wdi:
    - snapshot/wb/2024-02-10/wdi
  snapshot/wb/2024-02-10/wdi:
`

func testCatalog(t *testing.T) *Catalog {
	t.Helper()

	c, err := Load(strings.NewReader(testDAG))
	require.NoError(t, err)
	return c
}

func TestLoad(t *testing.T) {
	t.Parallel()

	c := testCatalog(t)
	require.Equal(t, 6, c.Len())

	s, ok := c.Step("garden/who/2024-01-03/gho")
	require.True(t, ok)
	require.Equal(t, ChannelGarden, s.Channel())
	require.Equal(t, []string{"meadow/who/2024-01-03/gho"}, s.Dependencies)
}

func TestStep_Channel(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name     string
		uri      string
		expected Channel
	}{
		{
			name:     "plain",
			uri:      "meadow/who/2024-01-03/gho",
			expected: ChannelMeadow,
		},
		{
			name:     "data scheme",
			uri:      "data://garden/wb/2024-02-10/wdi",
			expected: ChannelGarden,
		},
	}

	for i := range tt {
		tc := tt[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := &Step{URI: tc.uri}
			require.Equal(t, tc.expected, s.Channel())
		})
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name  string
		steps []*Step
	}{
		{
			name: "unknown channel",
			steps: []*Step{
				{URI: "warehouse/who/2024-01-03/gho"},
			},
		},
		{
			name: "unknown dependency",
			steps: []*Step{
				{URI: "meadow/who/2024-01-03/gho", Dependencies: []string{"snapshot/who/2024-01-03/gho"}},
			},
		},
		{
			name: "dependency against channel order",
			steps: []*Step{
				{URI: "grapher/who/2024-01-03/gho"},
				{URI: "meadow/who/2024-01-03/gho", Dependencies: []string{"grapher/who/2024-01-03/gho"}},
			},
		},
		{
			name: "duplicate step",
			steps: []*Step{
				{URI: "meadow/who/2024-01-03/gho"},
				{URI: "meadow/who/2024-01-03/gho"},
			},
		},
	}

	for i := range tt {
		tc := tt[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(tc.steps)
			require.Error(t, err)
		})
	}
}

func TestCatalog_TopoSort(t *testing.T) {
	t.Parallel()

	c := testCatalog(t)

	order, err := c.TopoSort()
	require.NoError(t, err)
	require.Len(t, order, 6)

	position := make(map[string]int, len(order))
	for i, uri := range order {
		position[uri] = i
	}

	for _, uri := range c.URIs() {
		s, _ := c.Step(uri)
		for _, dep := range s.Dependencies {
			require.Less(t, position[dep], position[uri])
		}
	}

	// The order is stable across calls.
	again, err := c.TopoSort()
	require.NoError(t, err)
	require.Equal(t, order, again)
}

func TestCatalog_TopoSort_Cycle(t *testing.T) {
	t.Parallel()

	c := &Catalog{steps: map[string]*Step{
		"garden/a/1/x": {URI: "garden/a/1/x", Dependencies: []string{"garden/a/1/y"}},
		"garden/a/1/y": {URI: "garden/a/1/y", Dependencies: []string{"garden/a/1/x"}},
	}}

	_, err := c.TopoSort()

	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	require.Len(t, cycleErr.Path, 3)
	require.Equal(t, cycleErr.Path[0], cycleErr.Path[len(cycleErr.Path)-1])
}

func TestCatalog_Subgraph(t *testing.T) {
	t.Parallel()

	c := testCatalog(t)

	sub, err := c.Subgraph("garden/who/2024-01-03/gho")
	require.NoError(t, err)
	require.Equal(t, []string{
		"garden/who/2024-01-03/gho",
		"meadow/who/2024-01-03/gho",
		"snapshot/who/2024-01-03/gho",
	}, sub)

	_, err = c.Subgraph("garden/missing/1/x")
	require.Error(t, err)
}

func TestCatalog_Dependents(t *testing.T) {
	t.Parallel()

	c := testCatalog(t)

	deps, err := c.Dependents("snapshot/who/2024-01-03/gho")
	require.NoError(t, err)
	require.Equal(t, []string{
		"garden/who/2024-01-03/gho",
		"grapher/who/2024-01-03/gho",
		"meadow/who/2024-01-03/gho",
	}, deps)
}
