package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/foc-extractor/internal/app"
	"github.com/joseph-ayodele/foc-extractor/internal/common"
	"github.com/joseph-ayodele/foc-extractor/internal/ingest"
)

const declarationText = "수출신고번호 12345-67-890123A\n(란번호/총란수 : 001/001) (NO.01) Widget FREE OF CHARGE 3 (EA)"

func testConfig() *common.Config {
	return &common.Config{Batch: common.BatchConfig{Workers: 2}}
}

func writeDecl(t *testing.T) ingest.Source {
	t.Helper()
	path := filepath.Join(t.TempDir(), "decl.txt")
	require.NoError(t, os.WriteFile(path, []byte(declarationText), 0o644))
	src, err := ingest.NewFSIngestor(nil).IngestPath(context.Background(), path)
	require.NoError(t, err)
	return src
}

func TestBuild_WithoutCache(t *testing.T) {
	st, err := app.Build(testConfig(), nil, nil)
	require.NoError(t, err)
	defer st.Close()

	assert.Nil(t, st.Cache)
	assert.NoError(t, st.Health(context.Background()))

	rep, err := st.Runner.Run(context.Background(), []ingest.Source{writeDecl(t)})
	require.NoError(t, err)
	require.Len(t, rep.Records, 1)
	assert.Equal(t, "3 (EA)", rep.Records[0].Quantity)
}

func TestBuild_WithRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Cache.RedisAddr = mr.Addr()

	st, err := app.Build(cfg, nil, nil)
	require.NoError(t, err)
	defer st.Close()
	require.NotNil(t, st.Cache)

	src := writeDecl(t)
	_, err = st.Runner.Run(context.Background(), []ingest.Source{src})
	require.NoError(t, err)

	assert.Len(t, mr.Keys(), 1)
	assert.NoError(t, st.Health(context.Background()))
}

func TestBuild_BadRulesFile(t *testing.T) {
	cfg := testConfig()
	cfg.Rules.Path = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := app.Build(cfg, nil, nil)

	assert.Error(t, err)
}
