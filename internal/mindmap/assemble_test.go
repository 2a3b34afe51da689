package mindmap

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/renovation-mindmap/internal/models"
)

// row builds a FlatRecord; parent < 0 means no parent.
func row(id int64, name string, parent int64, details string) models.FlatRecord {
	rec := models.FlatRecord{NodeID: int64Ptr(id), Name: name}
	if parent >= 0 {
		rec.ParentID = int64Ptr(parent)
	}
	if details != "" {
		rec.Details = strPtr(details)
	}
	return rec
}

func TestAssembleBuildsHierarchy(t *testing.T) {
	records := []models.FlatRecord{
		row(1, "装修总流程", -1, ""),
		row(2, "设计阶段", 1, "确定装修风格"),
		row(3, "施工阶段", 1, "水电改造"),
		row(4, "方案确认", 2, "业主需求沟通"),
	}

	res := Assemble(records)
	require.NotNil(t, res.Root)

	root := res.Root
	assert.Equal(t, "装修总流程", root.Name)
	assert.Empty(t, root.Details)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "设计阶段", root.Children[0].Name)
	assert.Equal(t, "施工阶段", root.Children[1].Name)
	require.Len(t, root.Children[0].Children, 1)
	assert.Equal(t, int64(4), root.Children[0].Children[0].NodeID)
	assert.Empty(t, res.Orphans)
	assert.Equal(t, []int64{1}, res.RootCandidates)
}

func TestAssembleChildBeforeParent(t *testing.T) {
	records := []models.FlatRecord{
		row(4, "grandchild", 2, ""),
		row(2, "child", 1, ""),
		row(1, "root", -1, ""),
	}

	root := Assemble(records).Root
	require.NotNil(t, root)
	require.Len(t, root.Children, 1)
	require.Len(t, root.Children[0].Children, 1)
	assert.Equal(t, "grandchild", root.Children[0].Children[0].Name)
}

func TestAssembleMergesDuplicateNodeIDs(t *testing.T) {
	first := row(2, "水电改造", 1, "电线规格选择")
	first.Image = strPtr("/img/wire.png")
	first.ImgURL = []string{"/img/wire.png"}
	second := row(2, "ignored name", 99, "开槽布管")
	second.Image = strPtr("/img/pipe.png")
	second.ImgURL = []string{"/img/pipe.png"}
	blank := row(2, "", 1, "")

	res := Assemble([]models.FlatRecord{row(1, "root", -1, ""), first, second, blank})
	require.NotNil(t, res.Root)
	require.Len(t, res.Root.Children, 1)

	node := res.Root.Children[0]
	assert.Equal(t, "水电改造", node.Name, "name is not overwritten")
	assert.Equal(t, []models.Detail{
		{Text: "电线规格选择", Image: "/img/wire.png"},
		{Text: "开槽布管", Image: "/img/pipe.png"},
	}, node.Details)
	assert.Equal(t, []string{"/img/wire.png", "/img/pipe.png"}, node.ImgURL)
	assert.Empty(t, res.Orphans, "parent of the first row is kept")
}

func TestAssembleDropsOrphans(t *testing.T) {
	records := []models.FlatRecord{
		row(1, "root", -1, ""),
		row(2, "child", 1, ""),
		row(3, "orphan", 42, ""),
		row(4, "orphan child", 3, ""),
	}

	res := Assemble(records)
	require.NotNil(t, res.Root)
	assert.Equal(t, []int64{3}, res.Orphans)
	assert.ElementsMatch(t, []int64{1, 2}, NodeIDs(res.Root))
}

// Characterizes current behavior: the last parentless row becomes the root.
func TestAssembleLastParentlessRowWins(t *testing.T) {
	records := []models.FlatRecord{
		row(1, "first root", -1, ""),
		row(2, "child of first", 1, ""),
		row(3, "second root", -1, ""),
	}

	res := Assemble(records)
	require.NotNil(t, res.Root)
	assert.Equal(t, "second root", res.Root.Name)
	assert.Equal(t, []int64{1, 3}, res.RootCandidates)
	assert.Empty(t, res.Root.Children)
}

func TestAssembleNoRoot(t *testing.T) {
	res := Assemble([]models.FlatRecord{row(2, "a", 1, ""), row(3, "b", 2, "")})
	assert.Nil(t, res.Root)
	assert.Equal(t, []int64{2}, res.Orphans)
}

func TestAssembleSkipsUnparseableIDs(t *testing.T) {
	bad := models.FlatRecord{Name: "broken"}
	res := Assemble([]models.FlatRecord{bad, row(1, "root", -1, "")})
	require.NotNil(t, res.Root)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, "root", res.Root.Name)
}

func TestAssembleRootNeverLinkedUnderDescendant(t *testing.T) {
	// Node 1 first claims parent 2, then a second row declares it parentless.
	records := []models.FlatRecord{
		row(1, "root", 2, ""),
		row(2, "child", 1, ""),
		row(1, "", -1, ""),
	}

	res := Assemble(records)
	require.NotNil(t, res.Root)
	assert.Equal(t, []int64{1, 2}, NodeIDs(res.Root))
}

func TestAssembleNodeSetProperty(t *testing.T) {
	records := []models.FlatRecord{
		row(10, "root", -1, ""),
		row(11, "a", 10, "x"),
		row(12, "b", 10, "y"),
		row(13, "c", 11, ""),
		row(11, "a", 10, "z"),
		row(14, "lost", 77, ""),
		row(15, "lost child", 14, ""),
		row(16, "d", 13, ""),
	}

	res := Assemble(records)
	require.NotNil(t, res.Root)

	// Expected: all ids minus those whose parent chain hits a missing parent.
	got := NodeIDs(res.Root)
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	assert.Equal(t, []int64{10, 11, 12, 13, 16}, got)
}

func TestAssembleIsDeterministic(t *testing.T) {
	records := []models.FlatRecord{
		row(1, "root", -1, "r"),
		row(2, "a", 1, "x"),
		row(3, "b", 1, "y"),
		row(2, "a", 1, "x2"),
	}
	first := Assemble(records).Root
	second := Assemble(records).Root
	assert.Equal(t, first, second)
}
