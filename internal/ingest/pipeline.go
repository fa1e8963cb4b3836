package ingest

import (
	"spendlens/internal/core"
)

// Batch is the result of ingesting one archive.
type Batch struct {
	Entry        string
	Transactions []core.Transaction
}

// Pipeline runs archive reading, table parsing and normalization in order.
type Pipeline struct {
	normalizer *Normalizer
}

func NewPipeline(n *Normalizer) *Pipeline {
	if n == nil {
		n = NewNormalizer()
	}
	return &Pipeline{normalizer: n}
}

// Ingest extracts and normalizes the table inside blob. Nothing is returned
// on failure, so callers never see a partial batch.
func (p *Pipeline) Ingest(blob []byte) (Batch, error) {
	entry, err := ReadArchive(blob)
	if err != nil {
		return Batch{}, err
	}
	return Batch{
		Entry:        entry.Name,
		Transactions: p.FromText(entry.Text),
	}, nil
}

// FromText parses and normalizes a table that is already decompressed.
func (p *Pipeline) FromText(text string) []core.Transaction {
	return p.normalizer.NormalizeAll(ParseTable(text))
}
