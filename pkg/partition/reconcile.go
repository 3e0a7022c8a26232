package partition

import (
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// Dataset is the reconciled view over all partitions: the unioned column
// schema and one row per iid.
type Dataset struct {
	Columns []string
	Rows    []map[string]interface{}
}

// Reconcile merges partition row files, given oldest partition first. Later
// partitions may contain corrected or re-enriched versions of records already
// seen, so rows deduplicate on iid with keep-last semantics. The column
// schema is the union across all partitions; columns a row's partition didn't
// have stay nil.
func Reconcile(partitions [][]byte) (*Dataset, error) {
	dataset := &Dataset{}
	seenColumn := map[string]bool{}
	rowIndex := map[int64]int{}

	for _, content := range partitions {
		for _, line := range strings.Split(string(content), "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			parsed := gjson.Parse(line)
			if !parsed.IsObject() {
				return nil, errors.Errorf("malformed partition row: %.60s", line)
			}

			row := map[string]interface{}{}
			parsed.ForEach(func(key, value gjson.Result) bool {
				column := key.String()
				if !seenColumn[column] {
					seenColumn[column] = true
					dataset.Columns = append(dataset.Columns, column)
				}
				row[column] = value.Value()
				return true
			})

			iid := parsed.Get("iid")
			if !iid.Exists() {
				return nil, errors.Errorf("partition row without iid: %.60s", line)
			}

			if at, ok := rowIndex[iid.Int()]; ok {
				dataset.Rows[at] = row
			} else {
				rowIndex[iid.Int()] = len(dataset.Rows)
				dataset.Rows = append(dataset.Rows, row)
			}
		}
	}

	// Backfill columns a row's partition never had.
	for _, row := range dataset.Rows {
		for _, column := range dataset.Columns {
			if _, ok := row[column]; !ok {
				row[column] = nil
			}
		}
	}

	log.Infof("reconciled %d partitions into %d rows with %d columns",
		len(partitions), len(dataset.Rows), len(dataset.Columns))
	return dataset, nil
}
