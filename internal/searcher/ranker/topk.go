package ranker

import (
	"container/heap"
	"sort"
)

// Sort orders results by descending score, ties by ascending doc id.
func Sort(results []ScoredDoc) {
	sort.Slice(results, func(i, j int) bool {
		return ranksBefore(results[i], results[j])
	})
}

func ranksBefore(a, b ScoredDoc) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.DocID < b.DocID
}

// TopK returns the k best results in rank order without sorting the whole
// slice. k <= 0 or k >= len(results) sorts and returns everything. The input
// slice may be reordered.
func TopK(results []ScoredDoc, k int) []ScoredDoc {
	if k <= 0 || k >= len(results) {
		Sort(results)
		return results
	}
	h := &scoredDocHeap{}
	heap.Init(h)
	for _, doc := range results {
		if h.Len() < k {
			heap.Push(h, doc)
			continue
		}
		if ranksBefore(doc, (*h)[0]) {
			(*h)[0] = doc
			heap.Fix(h, 0)
		}
	}
	top := make([]ScoredDoc, h.Len())
	for i := len(top) - 1; i >= 0; i-- {
		top[i] = heap.Pop(h).(ScoredDoc)
	}
	return top
}

// scoredDocHeap is a min-heap on rank: the root is the worst kept result.
type scoredDocHeap []ScoredDoc

func (h scoredDocHeap) Len() int { return len(h) }

func (h scoredDocHeap) Less(i, j int) bool { return ranksBefore(h[j], h[i]) }

func (h scoredDocHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoredDocHeap) Push(x interface{}) {
	*h = append(*h, x.(ScoredDoc))
}

func (h *scoredDocHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
