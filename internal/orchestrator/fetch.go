package orchestrator

import (
	"encoding/json"
	"time"

	"github.com/go-rod/rod"

	geometricstrategy "github.com/use-agent/leaderboard-scout/internal/strategy/geometric"
)

const pageActionTimeout = 10 * time.Second

// pageFetcher implements strategy/api.Fetcher by issuing the request
// through the live page's own fetch(), so cookies and session state
// carry over exactly as a real pagination click would.
type pageFetcher struct {
	page *rod.Page
}

func (f pageFetcher) FetchJSON(url string) (json.RawMessage, error) {
	res, err := f.page.Timeout(pageActionTimeout).Eval(
		`(url) => fetch(url, {credentials: 'include'}).then(r => r.text())`, url)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(res.Value.Str()), nil
}

// rawBlock is the wire shape measureBlocksJS reports for one element.
type rawBlock struct {
	X, Y, W, H float64
	Text       string
}

// measureBlocksJS asks the rendered page for every reasonably-sized
// element's bounding box and text, capped at 400 elements — the plain
// input the Geometric strategy groups into list/podium regions.
const measureBlocksJS = `() => {
  const out = [];
  const els = document.querySelectorAll('body *');
  for (const el of els) {
    if (out.length >= 400) break;
    const r = el.getBoundingClientRect();
    if (r.width < 10 || r.height < 10) continue;
    out.push({X: r.x, Y: r.y, W: r.width, H: r.height, Text: el.innerText || ''});
  }
  return JSON.stringify(out);
}`

// measureVisibleBlocks is the only Geometric-strategy input that needs
// a live page: everything downstream of it (grouping, row parsing) is
// pure and lives in internal/strategy/geometric.
func measureVisibleBlocks(page *rod.Page) ([]geometricstrategy.Block, float64) {
	p := page.Timeout(pageActionTimeout)

	res, err := p.Eval(measureBlocksJS)
	if err != nil {
		return nil, 0
	}
	var raws []rawBlock
	if err := json.Unmarshal([]byte(res.Value.Str()), &raws); err != nil {
		return nil, 0
	}

	blocks := make([]geometricstrategy.Block, len(raws))
	for i, r := range raws {
		blocks[i] = geometricstrategy.Block{X: r.X, Y: r.Y, Width: r.W, Height: r.H, Text: r.Text}
	}

	width := 1280.0
	if widthRes, err := p.Eval(`() => window.innerWidth`); err == nil {
		width = float64(widthRes.Value.Int())
	}
	return blocks, width
}
