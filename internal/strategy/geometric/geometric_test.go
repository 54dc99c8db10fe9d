package geometric

import "testing"

func makeListBlocks(n int) []Block {
	blocks := make([]Block, n)
	for i := 0; i < n; i++ {
		blocks[i] = Block{
			X: 100, Y: float64(300 + i*40), Width: 400, Height: 30,
			Text: "entry" + string(rune('a'+i)) + "\nWAGERED 100\nPRIZE 10",
		}
	}
	return blocks
}

func TestExtractFindsListGroup(t *testing.T) {
	blocks := makeListBlocks(6)
	entries := Extract(blocks, 1280)
	if len(entries) == 0 {
		t.Fatal("expected at least one entry from the list group")
	}
}

func TestExtractFiltersTinyElements(t *testing.T) {
	blocks := []Block{
		{X: 0, Y: 0, Width: 5, Height: 5, Text: "tiny"},
	}
	entries := Extract(blocks, 1280)
	if len(entries) != 0 {
		t.Fatalf("expected tiny elements filtered out, got %+v", entries)
	}
}

func TestExtractFiltersOverWideElements(t *testing.T) {
	blocks := []Block{
		{X: 0, Y: 0, Width: 1270, Height: 100, Text: "full width banner"},
	}
	entries := Extract(blocks, 1280)
	if len(entries) != 0 {
		t.Fatalf("expected near-viewport-width element filtered out, got %+v", entries)
	}
}

func TestPickListGroupRequiresMinimumFive(t *testing.T) {
	blocks := makeListBlocks(3)
	groups := groupBySize(filterVisible(blocks, 1280))
	list, _ := pickListGroup(groups)
	if list != nil {
		t.Fatalf("expected no list group with only 3 elements, got %+v", list)
	}
}

func TestPodiumAboveListWithLargerArea(t *testing.T) {
	list := makeListBlocks(5)
	podium := []Block{
		{X: 100, Y: 50, Width: 300, Height: 200, Text: "champ\nWAGERED 1000\nPRIZE 500"},
		{X: 450, Y: 60, Width: 300, Height: 200, Text: "runnerup\nWAGERED 500\nPRIZE 200"},
	}
	all := append(podium, list...)
	entries := Extract(all, 1280)
	if len(entries) == 0 {
		t.Fatal("expected podium + list entries combined")
	}
}
