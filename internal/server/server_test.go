package server_test

import (
	"context"
	"encoding/base64"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/foc-extractor/internal/common"
	"github.com/joseph-ayodele/foc-extractor/internal/core/extract"
	"github.com/joseph-ayodele/foc-extractor/internal/core/pipeline"
	"github.com/joseph-ayodele/foc-extractor/internal/export"
	"github.com/joseph-ayodele/foc-extractor/internal/ingest"
	"github.com/joseph-ayodele/foc-extractor/internal/repository"
	"github.com/joseph-ayodele/foc-extractor/internal/server"
)

const declarationText = "수출신고번호 12345-67-890123A\n" +
	"(란번호/총란수 : 001/001) (NO.01) Widget A FREE OF CHARGE 2 (EA) (NO.02) Canister B FREE OF CHARGE 1 (EA)"

type harness struct {
	client *server.ExtractionClient
	health healthpb.HealthClient
	inbox  string
}

func newHarness(t *testing.T, withRuns bool) *harness {
	t.Helper()
	deps := pipeline.Deps{}
	parser := pipeline.NewParserFromRules(common.DefaultRules(), deps)
	runner := pipeline.NewBatchRunner(pipeline.NewProcessor(extract.NewChain(nil, extract.PlainText{}), parser, deps), deps)

	inbox := t.TempDir()
	opts := server.Options{Ingestor: ingest.NewFSIngestor(nil), Roots: []string{inbox}}
	if withRuns {
		name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
		db, err := repository.Open(context.Background(), repository.Config{DSN: repository.InMemoryDSN(name)}, nil)
		require.NoError(t, err)
		t.Cleanup(db.Close)
		require.NoError(t, db.Migrate(context.Background()))
		opts.Runs = repository.NewRunRepository(db)
	}

	gs, _ := server.NewGRPCServer(server.NewExtractionService(runner, opts, nil), nil)
	lis := bufconn.Listen(1 << 20)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &harness{client: server.NewExtractionClient(conn), health: healthpb.NewHealthClient(conn), inbox: inbox}
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestExtractDocuments_Texts(t *testing.T) {
	h := newHarness(t, false)

	resp, err := h.client.ExtractDocuments(context.Background(), mustStruct(t, map[string]any{
		"documents":   []any{map[string]any{"name": "a.txt", "text": declarationText}},
		"include_all": true,
	}))
	require.NoError(t, err)

	out := resp.AsMap()
	assert.Equal(t, "COMPLETED", out["status"])
	records := out["records"].([]any)
	require.Len(t, records, 1)
	rec := records[0].(map[string]any)
	assert.Equal(t, "a.txt", rec["document_name"])
	assert.Equal(t, "(NO.01)", rec["item_tag"])
	assert.Equal(t, "2 (EA)", rec["quantity"])
	assert.Equal(t, true, rec["is_foc"])
	assert.Len(t, out["all_records"].([]any), 2)
	assert.Equal(t, float64(1), out["stats"].(map[string]any)["foc"])
}

func TestExtractDocuments_Validation(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	_, err := h.client.ExtractDocuments(ctx, mustStruct(t, map[string]any{}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.client.ExtractDocuments(ctx, mustStruct(t, map[string]any{
		"documents": []any{map[string]any{"text": "x"}},
		"paths":     []any{"/tmp/a.txt"},
	}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.client.ExtractDocuments(ctx, mustStruct(t, map[string]any{"paths": []any{"/etc/passwd.txt"}}))
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestExtractDocuments_UnreadablePathDoesNotAbortBatch(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	good := filepath.Join(h.inbox, "decl.txt")
	require.NoError(t, os.WriteFile(good, []byte(declarationText), 0o644))

	resp, err := h.client.ExtractDocuments(ctx, mustStruct(t, map[string]any{
		"paths": []any{good, filepath.Join(h.inbox, "missing.txt"), filepath.Join(h.inbox, "notes.docx")},
	}))
	require.NoError(t, err)

	out := resp.AsMap()
	assert.Equal(t, "PARTIAL", out["status"])
	require.Len(t, out["records"].([]any), 1)
	stats := out["stats"].(map[string]any)
	assert.Equal(t, float64(3), stats["documents"])
	assert.Equal(t, float64(2), stats["failed"])

	warns := out["warnings"].([]any)
	require.Len(t, warns, 2)
	first := warns[0].(map[string]any)
	assert.Equal(t, "missing.txt", first["document"])
	assert.Equal(t, "ACQUISITION_FAILURE", first["kind"])
	assert.Equal(t, "notes.docx", warns[1].(map[string]any)["document"])

	run, err := h.client.GetRun(ctx, mustStruct(t, map[string]any{"batch_id": out["batch_id"]}))
	require.NoError(t, err)
	assert.Len(t, run.AsMap()["warnings"].([]any), 2)
}

func TestExtractDocuments_PathsPersistAndExport(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	path := filepath.Join(h.inbox, "decl.txt")
	require.NoError(t, os.WriteFile(path, []byte(declarationText), 0o644))

	resp, err := h.client.ExtractDocuments(ctx, mustStruct(t, map[string]any{"paths": []any{path}}))
	require.NoError(t, err)
	batchID := resp.AsMap()["batch_id"].(string)

	run, err := h.client.GetRun(ctx, mustStruct(t, map[string]any{"batch_id": batchID, "foc_only": true}))
	require.NoError(t, err)
	runOut := run.AsMap()
	assert.Equal(t, "grpc:paths", runOut["source"])
	require.Len(t, runOut["records"].([]any), 1)

	exp, err := h.client.ExportRun(ctx, mustStruct(t, map[string]any{"batch_id": batchID}))
	require.NoError(t, err)
	expOut := exp.AsMap()
	assert.True(t, strings.HasPrefix(expOut["filename"].(string), "FOC_Final_Report_"))

	raw, err := base64.StdEncoding.DecodeString(expOut["xlsx_base64"].(string))
	require.NoError(t, err)
	f, err := excelize.OpenReader(strings.NewReader(string(raw)))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(export.SheetFOC)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "decl.txt", rows[1][0])
}

func TestGetRun_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := newHarness(t, false).client.GetRun(ctx, mustStruct(t, map[string]any{"batch_id": "x"}))
	assert.Equal(t, codes.Unimplemented, status.Code(err))

	h := newHarness(t, true)
	_, err = h.client.GetRun(ctx, mustStruct(t, map[string]any{"batch_id": "not-a-uuid"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.client.GetRun(ctx, mustStruct(t, map[string]any{"batch_id": "7d1c6f3e-5a0b-4c35-9a8e-2f0f5b1d9e11"}))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestHealth(t *testing.T) {
	h := newHarness(t, false)

	resp, err := h.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: server.ServiceName})

	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
