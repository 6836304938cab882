package market

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSideString(t *testing.T) {
	assert.Equal(t, "BUY", SideBuy.String())
	assert.Equal(t, "SELL", SideSell.String())
	assert.Equal(t, SideSell, SideBuy.Opposite())
	assert.Equal(t, SideBuy, SideSell.Opposite())
}

func TestParseSide(t *testing.T) {
	assert.Equal(t, SideBuy, ParseSide("BUY"))
	assert.Equal(t, SideSell, ParseSide("SELL"))
	assert.Equal(t, SideSell, ParseSide("anything"))
}

func TestParseOrderType(t *testing.T) {
	assert.Equal(t, OrderTypeLimit, ParseOrderType("LIMIT"))
	assert.Equal(t, OrderTypeMarket, ParseOrderType("MARKET"))
	// any unknown token is treated as a market order
	assert.Equal(t, OrderTypeMarket, ParseOrderType("IOC"))
}

func TestIDGeneratorStartsAtOne(t *testing.T) {
	g := NewIDGenerator()
	assert.Equal(t, uint64(1), g.Next())
	assert.Equal(t, uint64(2), g.Next())
}

func TestIDGeneratorUniqueUnderConcurrency(t *testing.T) {
	g := NewIDGenerator()

	const workers, perWorker = 8, 1000
	var mu sync.Mutex
	seen := make(map[uint64]bool, workers*perWorker)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]uint64, 0, perWorker)
			for j := 0; j < perWorker; j++ {
				ids = append(ids, g.Next())
			}
			mu.Lock()
			for _, id := range ids {
				assert.False(t, seen[id])
				seen[id] = true
			}
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, workers*perWorker)
}
