package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avgerinos/coinfolio/internal/modules/market"
	"github.com/avgerinos/coinfolio/internal/modules/proposals"
	"github.com/avgerinos/coinfolio/internal/modules/reports"
)

const testKey = "analyst-secret"

type fakeProposals struct {
	submitted []proposals.Proposal
	err       error
}

func (f *fakeProposals) Submit(ctx context.Context, p proposals.Proposal) (proposals.Proposal, error) {
	if f.err != nil {
		return proposals.Proposal{}, f.err
	}
	f.submitted = append(f.submitted, p)
	return p, nil
}

func (f *fakeProposals) List(ctx context.Context, userID, status string) ([]proposals.Proposal, error) {
	var out []proposals.Proposal
	for _, p := range f.submitted {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeReports struct {
	submitted []reports.Report
}

func (f *fakeReports) Submit(ctx context.Context, rep reports.Report) (reports.Report, error) {
	f.submitted = append(f.submitted, rep)
	return rep, nil
}

type fakeMarket struct {
	indicators map[string]market.Indicator
	cached     []market.CoinPrice
}

func (f *fakeMarket) UpsertIndicator(ind market.Indicator) error {
	if f.indicators == nil {
		f.indicators = make(map[string]market.Indicator)
	}
	f.indicators[ind.Name] = ind
	return nil
}

func (f *fakeMarket) Indicators() ([]market.Indicator, error) {
	var out []market.Indicator
	for _, ind := range f.indicators {
		out = append(out, ind)
	}
	return out, nil
}

func (f *fakeMarket) CachePrices(prices []market.CoinPrice) (int, error) {
	f.cached = append(f.cached, prices...)
	return len(prices), nil
}

func newTestRouter(proposalSink ProposalSink, reportSink ReportSink, marketSink MarketSink) http.Handler {
	h := NewHandler(testKey, proposalSink, reportSink, marketSink, zerolog.Nop())
	r := chi.NewRouter()
	r.Route("/api", h.RegisterRoutes)
	return r
}

func post(t *testing.T, router http.Handler, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader(body))
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthRejectsMissingAndWrongKey(t *testing.T) {
	router := newTestRouter(&fakeProposals{}, &fakeReports{}, &fakeMarket{})

	rec := post(t, router, "", `{"action":"indicator"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(t, router, "wrong-key", `{"action":"indicator"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthAcceptsQueryParamKey(t *testing.T) {
	marketSink := &fakeMarket{}
	router := newTestRouter(&fakeProposals{}, &fakeReports{}, marketSink)

	body := `{"action":"indicator","payload":{"name":"btc_dominance","value":"54"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/ingest?key="+testKey, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, marketSink.indicators, "btc_dominance")
}

func TestUnknownActionIsBadRequest(t *testing.T) {
	router := newTestRouter(&fakeProposals{}, &fakeReports{}, &fakeMarket{})

	rec := post(t, router, testKey, `{"action":"teleport"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown action")
}

func TestIngestProposal(t *testing.T) {
	proposalSink := &fakeProposals{}
	router := newTestRouter(proposalSink, &fakeReports{}, &fakeMarket{})

	body := `{"action":"proposal","user_id":"founder","payload":{
		"coin_id":"bitcoin","symbol":"BTC","action":"BUY","bucket":"long-term",
		"confluence_score":81,"risks":["macro"]}}`
	rec := post(t, router, testKey, body)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, proposalSink.submitted, 1)
	p := proposalSink.submitted[0]
	assert.Equal(t, "founder", p.UserID, "owner falls back to the envelope user_id")
	assert.Equal(t, "BUY", p.Action)
	assert.Equal(t, 81.0, p.ConfluenceScore)
}

func TestIngestReport(t *testing.T) {
	reportSink := &fakeReports{}
	router := newTestRouter(&fakeProposals{}, reportSink, &fakeMarket{})

	body := `{"action":"report","user_id":"founder","payload":{
		"title":"Weekly read","report_type":"weekly","content":"alts bleeding"}}`
	rec := post(t, router, testKey, body)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, reportSink.submitted, 1)
	assert.Equal(t, "founder", reportSink.submitted[0].UserID)
}

func TestIngestCacheBulkUpsert(t *testing.T) {
	marketSink := &fakeMarket{}
	router := newTestRouter(&fakeProposals{}, &fakeReports{}, marketSink)

	body := `{"action":"cache","payload":[
		{"coin_id":"bitcoin","symbol":"BTC","price_usd":60000},
		{"coin_id":"ethereum","symbol":"ETH","price_usd":2500}]}`
	rec := post(t, router, testKey, body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, marketSink.cached, 2)
	assert.Contains(t, rec.Body.String(), `"cached":2`)
}

func TestSinkErrorIsServerError(t *testing.T) {
	proposalSink := &fakeProposals{err: errors.New("disk full")}
	router := newTestRouter(proposalSink, &fakeReports{}, &fakeMarket{})

	body := `{"action":"proposal","user_id":"founder","payload":{"coin_id":"bitcoin","action":"BUY"}}`
	rec := post(t, router, testKey, body)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "disk full")
}

func TestGetIndicators(t *testing.T) {
	marketSink := &fakeMarket{}
	require.NoError(t, marketSink.UpsertIndicator(market.Indicator{Name: "btc_dominance", Value: "54"}))
	router := newTestRouter(&fakeProposals{}, &fakeReports{}, marketSink)

	req := httptest.NewRequest(http.MethodGet, "/api/ingest?type=indicators", nil)
	req.Header.Set("X-API-Key", testKey)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "btc_dominance")
}

func TestGetProposalsRequiresUserID(t *testing.T) {
	router := newTestRouter(&fakeProposals{}, &fakeReports{}, &fakeMarket{})

	req := httptest.NewRequest(http.MethodGet, "/api/ingest?type=proposals", nil)
	req.Header.Set("X-API-Key", testKey)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
