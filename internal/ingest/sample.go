package ingest

import (
	"bytes"

	"spendlens/internal/core"
)

// SampleEntryName is the entry name used for the built-in sample archive.
const SampleEntryName = "sample.csv"

// SampleCSV is the built-in demonstration statement.
const SampleCSV = `date,merchant,category,amount,type
2025-01-08,Swiggy,Food,349,Debit
2025-01-08,Uber,Transport,189,Debit
2025-01-07,PhonePe Wallet,Income,2000,Credit
2025-01-06,Big Bazaar,Groceries,1249,Debit
2025-01-05,Netflix,Entertainment,499,Debit
2025-01-03,Amazon,Shopping,1799,Debit
2025-01-02,Starbucks,Cafe,260,Debit
2025-01-01,Rent,Household,12000,Debit`

// Sample returns the sample statement as normalized transactions.
func (p *Pipeline) Sample() []core.Transaction {
	return p.FromText(SampleCSV)
}

// SampleArchive returns the sample statement packed as a zip archive.
func SampleArchive() ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteArchive(&buf, SampleEntryName, SampleCSV); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
