package graph

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEdge(t *testing.T) {
	g := NewGraph()
	g.AddEdge(10, 20)
	g.AddEdge(20, 10) // duplicate in reverse
	g.AddEdge(20, 30)
	g.AddEdge(30, 30) // self-loop

	assert.Equal(t, 3, g.NumNodes)
	assert.Equal(t, 3, g.NumEdges)
	assert.Equal(t, []int64{10, 20, 30}, g.IDs)

	idx, ok := g.Index(20)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.ElementsMatch(t, []int{0, 2}, g.Neighbors(idx))

	self, _ := g.Index(30)
	assert.Len(t, g.Neighbors(self), 2, "self-loop is stored once in the adjacency list")
	assert.Equal(t, 3, g.Degree(self), "self-loop adds two to the degree")
	assert.Equal(t, []float64{1, 2, 3}, g.Degrees())
	assert.NoError(t, g.Validate())
}

func TestNeighborsOutOfRange(t *testing.T) {
	g := NewGraph()
	g.AddEdge(1, 2)
	assert.Nil(t, g.Neighbors(-1))
	assert.Nil(t, g.Neighbors(5))
}

func TestComponentSizes(t *testing.T) {
	g := NewGraph()
	// Triangle
	g.AddEdge(1, 2)
	g.AddEdge(2, 3)
	g.AddEdge(3, 1)
	// Pair with a self-loop
	g.AddEdge(7, 8)
	g.AddEdge(8, 8)
	// Isolated
	g.AddNode(9)

	assert.Equal(t, []int{3, 2, 1}, g.ComponentSizes())
	assert.Equal(t, 6, g.Gonum().Nodes().Len())
}

func TestReadEdgeList(t *testing.T) {
	input := strings.Join([]string{
		"# comment",
		"1 2",
		"",
		"2\t3 extra tokens ignored",
		"4",
		"% matrix market style comment",
		"   3   1   ",
	}, "\n")

	g, err := NewEdgeListReader().Read(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 3, g.NumNodes)
	assert.Equal(t, 3, g.NumEdges)
	assert.Equal(t, []int64{1, 2, 3}, g.IDs)
}

func TestReadEdgeListInvalidID(t *testing.T) {
	_, err := NewEdgeListReader().Read(strings.NewReader("1 2\nfoo 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadEdgeListFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "net.txt")
	require.NoError(t, os.WriteFile(path, []byte("5 6\n6 7\n"), 0644))

	g, err := ReadEdgeList(path)
	require.NoError(t, err)
	assert.Equal(t, 3, g.NumNodes)

	_, err = ReadEdgeList(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
