package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"pharmanet/ledger"
	"pharmanet/storage"
)

type testResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := ledger.NewStore(storage.NewMemDB())
	srv := NewServer(store, nil, nil)
	srv.SetNowFunc(func() int64 { return 1700000000 })
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func call(t *testing.T, ts *httptest.Server, method string, params interface{}) testResponse {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  []interface{}{params},
	})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/rpc", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded testResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	require.Equal(t, "2.0", decoded.JSONRPC)
	return decoded
}

func caller(org string) map[string]string {
	return map[string]string{"org": org, "id": org + "-admin"}
}

func registerParams(org, crn, name, role string) map[string]interface{} {
	return map[string]interface{}{
		"caller":   caller(org),
		"crn":      crn,
		"name":     name,
		"location": "Pune",
		"role":     role,
	}
}

func TestRegisterCompanyOverRPC(t *testing.T) {
	ts := newTestServer(t)

	resp := call(t, ts, "pharma_registerCompany", registerParams("Manufacturer", "M1", "Acme", "Manufacturer"))
	require.Nil(t, resp.Error)

	var company struct {
		ID           string `json:"companyID"`
		CRN          string `json:"crn"`
		Hierarchy    uint8  `json:"hierarchyKey"`
		RegisteredAt int64  `json:"registeredAt"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &company))
	require.Equal(t, "M1", company.CRN)
	require.NotEmpty(t, company.ID)
	require.Equal(t, uint8(1), company.Hierarchy)
	require.Equal(t, int64(1700000000), company.RegisteredAt)
}

func TestConsumerCannotRegister(t *testing.T) {
	ts := newTestServer(t)

	resp := call(t, ts, "pharma_registerCompany", registerParams("Consumer", "C1", "Someone", "Distributor"))
	require.NotNil(t, resp.Error)
	require.Equal(t, codeUnauthorized, resp.Error.Code)
}

func TestDuplicateCRNMapsToDuplicateCode(t *testing.T) {
	ts := newTestServer(t)

	resp := call(t, ts, "pharma_registerCompany", registerParams("Manufacturer", "M1", "Acme", "Manufacturer"))
	require.Nil(t, resp.Error)

	resp = call(t, ts, "pharma_registerCompany", registerParams("Distributor", "M1", "Copycat", "Distributor"))
	require.NotNil(t, resp.Error)
	require.Equal(t, codeDuplicate, resp.Error.Code)
}

func TestUnknownMethod(t *testing.T) {
	ts := newTestServer(t)

	resp := call(t, ts, "pharma_mintTokens", map[string]interface{}{})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestMalformedPayloadAndParams(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/rpc", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	var decoded testResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	require.NotNil(t, decoded.Error)
	require.Equal(t, codeParseError, decoded.Error.Code)

	// Exactly one params object is required.
	body, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0", "id": 2, "method": "pharma_lookupCompany", "params": []interface{}{},
	})
	resp2, err := http.Post(ts.URL+"/rpc", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp2.Body.Close()
	var decoded2 testResponse
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&decoded2))
	require.NotNil(t, decoded2.Error)
	require.Equal(t, codeInvalidParams, decoded2.Error.Code)
}

func TestNULInIdentifierRejected(t *testing.T) {
	ts := newTestServer(t)

	// A \u0000 inside a CRN would splice extra segments into the composite
	// key; the decode layer must refuse it before any state is touched.
	resp := call(t, ts, "pharma_registerCompany", registerParams("Manufacturer", "M1\x00Acme", "Forged", "Manufacturer"))
	require.NotNil(t, resp.Error)
	require.Equal(t, codeInvalidParams, resp.Error.Code)

	resp = call(t, ts, "pharma_viewDrugCurrentState", map[string]interface{}{
		"caller":   caller("Retailer"),
		"drugName": "Paracetamol\x00x",
		"serialNo": "SN001",
	})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestViewAbsentDrugMapsToNotFound(t *testing.T) {
	ts := newTestServer(t)

	resp := call(t, ts, "pharma_viewDrugCurrentState", map[string]interface{}{
		"caller":   caller("Retailer"),
		"drugName": "Paracetamol",
		"serialNo": "SN404",
	})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeNotFound, resp.Error.Code)
}

func TestCreatePOAcceptsStringQuantity(t *testing.T) {
	ts := newTestServer(t)

	require.Nil(t, call(t, ts, "pharma_registerCompany", registerParams("Manufacturer", "M1", "Acme", "Manufacturer")).Error)
	require.Nil(t, call(t, ts, "pharma_registerCompany", registerParams("Distributor", "D1", "DistCo", "Distributor")).Error)
	require.Nil(t, call(t, ts, "pharma_addDrug", map[string]interface{}{
		"caller":     caller("Manufacturer"),
		"name":       "Paracetamol",
		"serialNo":   "SN001",
		"mfgDate":    "2026-01-01",
		"expDate":    "2028-01-01",
		"companyCRN": "M1",
	}).Error)

	resp := call(t, ts, "pharma_createPO", map[string]interface{}{
		"caller":    caller("Distributor"),
		"buyerCRN":  "D1",
		"sellerCRN": "M1",
		"drugName":  "Paracetamol",
		"quantity":  "1",
	})
	require.Nil(t, resp.Error)

	var po struct {
		Quantity int `json:"quantity"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &po))
	require.Equal(t, 1, po.Quantity)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
