package server

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/foc-extractor/constants"
	"github.com/joseph-ayodele/foc-extractor/internal/core/aggregate"
	"github.com/joseph-ayodele/foc-extractor/internal/core/declaration"
	"github.com/joseph-ayodele/foc-extractor/internal/core/pipeline"
	"github.com/joseph-ayodele/foc-extractor/internal/repository"
)

var recordKeys = []constants.Column{
	constants.ColDocumentName,
	constants.ColDeclarationNumber,
	constants.ColTradeCode,
	constants.ColLineIndex,
	constants.ColItemTag,
	constants.ColModelSpec,
	constants.ColQuantity,
	constants.ColNetWeight,
	constants.ColDeclaredPrice,
}

func recordValue(r declaration.OutputRecord) *structpb.Value {
	fields := make(map[string]*structpb.Value, len(recordKeys)+1)
	for _, c := range recordKeys {
		fields[string(c)] = structpb.NewStringValue(r.Field(c))
	}
	fields[string(constants.ColIsFOC)] = structpb.NewBoolValue(r.IsFOC)
	return structpb.NewStructValue(&structpb.Struct{Fields: fields})
}

func recordsValue(recs []declaration.OutputRecord) *structpb.Value {
	vals := make([]*structpb.Value, len(recs))
	for i, r := range recs {
		vals[i] = recordValue(r)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: vals})
}

func warningsValue(warns []declaration.Warning) *structpb.Value {
	vals := make([]*structpb.Value, len(warns))
	for i, w := range warns {
		vals[i] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"document": structpb.NewStringValue(w.Document),
			"kind":     structpb.NewStringValue(string(w.Kind)),
			"line":     structpb.NewStringValue(w.Line),
			"message":  structpb.NewStringValue(w.Message),
		}})
	}
	return structpb.NewListValue(&structpb.ListValue{Values: vals})
}

func statsValue(s aggregate.Stats) *structpb.Value {
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		"documents":  structpb.NewNumberValue(float64(s.Documents)),
		"failed":     structpb.NewNumberValue(float64(s.Failed)),
		"zero_yield": structpb.NewNumberValue(float64(s.ZeroYield)),
		"analyzed":   structpb.NewNumberValue(float64(s.Analyzed)),
		"unique":     structpb.NewNumberValue(float64(s.Unique)),
		"foc":        structpb.NewNumberValue(float64(s.FOC)),
		"duplicates": structpb.NewNumberValue(float64(s.Duplicates)),
	}})
}

func reportStruct(rep *pipeline.BatchReport, includeAll bool) *structpb.Struct {
	out := &structpb.Struct{Fields: map[string]*structpb.Value{
		"batch_id": structpb.NewStringValue(rep.BatchID.String()),
		"status":   structpb.NewStringValue(string(rep.Status)),
		"records":  recordsValue(rep.Records),
		"warnings": warningsValue(rep.Warnings),
		"stats":    statsValue(rep.Stats),
	}}
	if includeAll {
		out.Fields["all_records"] = recordsValue(rep.AllRecords)
	}
	return out
}

func runStruct(run *repository.Run, recs []declaration.OutputRecord, warns []declaration.Warning) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"batch_id":    structpb.NewStringValue(run.ID.String()),
		"status":      structpb.NewStringValue(string(run.Status)),
		"source":      structpb.NewStringValue(run.Source),
		"started_at":  structpb.NewStringValue(run.StartedAt.UTC().Format("2006-01-02T15:04:05Z07:00")),
		"finished_at": structpb.NewStringValue(run.FinishedAt.UTC().Format("2006-01-02T15:04:05Z07:00")),
		"stats":       statsValue(run.Stats),
		"records":     recordsValue(recs),
		"warnings":    warningsValue(warns),
	}}
}

// rawDocuments reads "documents": [{"name": "...", "text": "..."}].
func rawDocuments(in *structpb.Struct) ([]declaration.RawDocument, error) {
	list := in.GetFields()["documents"].GetListValue()
	if list == nil {
		return nil, nil
	}
	docs := make([]declaration.RawDocument, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		s := v.GetStructValue()
		if s == nil {
			return nil, fmt.Errorf("documents[%d] must be an object", i)
		}
		name := strings.TrimSpace(stringField(s, "name"))
		if name == "" {
			name = fmt.Sprintf("document-%03d", i+1)
		}
		docs = append(docs, declaration.RawDocument{Name: name, Text: stringField(s, "text")})
	}
	return docs, nil
}

func stringList(in *structpb.Struct, key string) []string {
	list := in.GetFields()[key].GetListValue()
	if list == nil {
		return nil
	}
	out := make([]string, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		if s := strings.TrimSpace(v.GetStringValue()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func boolField(s *structpb.Struct, key string) bool {
	return s.GetFields()[key].GetBoolValue()
}
