package spreadsheet

import (
	"io"
	"strconv"

	"github.com/sirupsen/logrus"
)

// EnrichSpec names the sheets and fields taking part in a cross-sheet join.
//
// For every record of TargetSheet, ForeignKeyField names another sheet and SourceField
// is the match key. The ValueField of each record in that sheet whose JoinField equals
// the match key is collected, in order, into a list stored under OutputField.
// ValueField defaults to OutputField.
type EnrichSpec struct {
	TargetSheet     string
	SourceField     string
	ForeignKeyField string
	JoinField       string
	ValueField      string
	OutputField     string
}

// EnrichOptions controls how dangling references are handled.
type EnrichOptions struct {
	// Strict turns a foreign key naming a missing sheet into ErrSheetNotFound.
	// Otherwise the record is logged and left without the output field.
	Strict bool
	Logger logrus.FieldLogger
}

func (s EnrichSpec) valueField() string {
	if s.ValueField != "" {
		return s.ValueField
	}
	return s.OutputField
}

// Enrich attaches the derived list field described by spec to the records of
// spec.TargetSheet. The target sheet is taken out of the dataset for the duration of the
// join, so its own title never resolves as a lookup sheet.
func (d *Dataset) Enrich(spec EnrichSpec, opts EnrichOptions) error {
	logger := opts.Logger
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}

	records, pos, ok := d.take(spec.TargetSheet)
	if !ok {
		return &Error{Kind: ErrSheetNotFound, Sheet: spec.TargetSheet, Row: -1}
	}
	err := d.enrichRecords(spec, opts.Strict, logger, records)
	d.insertAt(pos, spec.TargetSheet, records)
	return err
}

// enrichRecords computes the derived list of every record before setting any of them,
// so a failure leaves the target records untouched.
func (d *Dataset) enrichRecords(spec EnrichSpec, strict bool, logger logrus.FieldLogger, records []*Record) error {
	indexes := make(map[string]joinIndex)
	derived := make([][]string, len(records))
	matched := make([]bool, len(records))

	for i, r := range records {
		lookup, ok := r.GetString(spec.ForeignKeyField)
		if !ok {
			return &Error{Kind: ErrFieldMissing, Sheet: spec.TargetSheet, Row: -1, Field: spec.ForeignKeyField, Msg: recordLabel(i)}
		}
		key, ok := r.GetString(spec.SourceField)
		if !ok {
			return &Error{Kind: ErrFieldMissing, Sheet: spec.TargetSheet, Row: -1, Field: spec.SourceField, Msg: recordLabel(i)}
		}

		idx, cached := indexes[lookup]
		if !cached {
			source, found := d.Get(lookup)
			if !found {
				if strict {
					return &Error{Kind: ErrSheetNotFound, Sheet: lookup, Row: -1, Msg: "referenced by " + spec.TargetSheet + " " + recordLabel(i)}
				}
				logger.WithFields(logrus.Fields{
					"sheet":  lookup,
					"target": spec.TargetSheet,
					"record": key,
				}).Warn("referenced sheet not found, skipping record")
				continue
			}
			idx = buildJoinIndex(lookup, source, spec.JoinField, spec.valueField())
			indexes[lookup] = idx
		}

		values, err := idx.values(key)
		if err != nil {
			return err
		}
		derived[i] = values
		matched[i] = true
	}

	for i, r := range records {
		if matched[i] {
			r.Set(spec.OutputField, List(derived[i]...))
		}
	}
	return nil
}

// joinIndex maps a join key to the collected values, in source order. A matching
// record without the value field is kept as a failure for its key, so the error only
// surfaces when a target record actually looks that key up.
type joinIndex struct {
	byKey    map[string][]string
	failures map[string]error
}

func (j joinIndex) values(key string) ([]string, error) {
	if err, failed := j.failures[key]; failed {
		return nil, err
	}
	return append([]string{}, j.byKey[key]...), nil
}

func buildJoinIndex(title string, records []*Record, joinField, valueField string) joinIndex {
	idx := joinIndex{byKey: make(map[string][]string), failures: make(map[string]error)}
	for i, r := range records {
		joinKey, ok := r.GetString(joinField)
		if !ok {
			continue
		}
		if _, failed := idx.failures[joinKey]; failed {
			continue
		}
		value, ok := r.GetString(valueField)
		if !ok {
			idx.failures[joinKey] = &Error{Kind: ErrFieldMissing, Sheet: title, Row: -1, Field: valueField, Msg: recordLabel(i)}
			continue
		}
		idx.byKey[joinKey] = append(idx.byKey[joinKey], value)
	}
	return idx
}

func recordLabel(i int) string {
	return "record " + strconv.Itoa(i)
}
