package ranking

import "sort"

type Document struct {
	DocID int     `json:"doc_id"`
	Score float64 `json:"score"`
}

// Sort orders accumulated scores by descending score, breaking ties by
// ascending document ID, then keeps the first limit entries. A limit of zero
// or less keeps everything.
func Sort(scores map[int]float64, limit int) []Document {
	result := make([]Document, 0, len(scores))
	for docID, score := range scores {
		result = append(result, Document{DocID: docID, Score: score})
	}
	sortDocuments(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

func sortDocuments(docs []Document) {
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].Score != docs[j].Score {
			return docs[i].Score > docs[j].Score
		}
		return docs[i].DocID < docs[j].DocID
	})
}
