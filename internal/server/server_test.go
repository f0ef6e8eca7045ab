package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/abramin/abilens/internal/store"
	"github.com/sirupsen/logrus/hooks/test"
)

type fixture struct {
	contract store.ContractID
	failed   store.ContractID
	types    map[string]store.TypeID
}

// setupTestServer seeds a contract whose Event refers to Shape, Shape to
// Point, and Point to nothing; u256 hangs off Shape as well.
func setupTestServer(t *testing.T) (*Server, fixture) {
	tmpDir := t.TempDir()
	st, err := store.Open(tmpDir, "")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	batch, err := st.BeginBatch()
	if err != nil {
		t.Fatal(err)
	}
	defer batch.Rollback()

	fx := fixture{types: make(map[string]store.TypeID)}
	abiJSON := `{"structures":{"Point":{"name":"Point","kind":"struct","members":{"x":"core::felt252","y":"core::felt252"}}},"functions":{}}`
	fx.contract, err = batch.InsertContract(&store.Contract{Path: "target/dev/shapes.contract_class.json", Name: "shapes", SizeBytes: 2048, ABIJSON: abiJSON})
	if err != nil {
		t.Fatal(err)
	}
	fx.failed, err = batch.InsertContract(&store.Contract{Path: "broken.json", Name: "broken", ParseError: "Circular reference detected: A -> A."})
	if err != nil {
		t.Fatal(err)
	}

	rows := []store.Type{
		{Name: "Point", Kind: store.TypeKindStruct, Members: []store.Member{{Position: 0, Name: "x", Type: "core::felt252"}, {Position: 1, Name: "y", Type: "core::felt252"}}},
		{Name: "core::integer::u256", Kind: store.TypeKindStruct, Members: []store.Member{{Position: 0, Name: "low", Type: "core::integer::u128"}}},
		{Name: "Shape", Kind: store.TypeKindEnum, Members: []store.Member{{Position: 0, Name: "Dot", Type: "Point"}, {Position: 1, Name: "Big", Type: "core::integer::u256"}}},
		{Name: "Event", Kind: store.TypeKindEvent, EventKind: "enum", Members: []store.Member{{Position: 0, Name: "Drawn", Type: "Shape"}}},
	}
	for _, row := range rows {
		row.ContractID = fx.contract
		id, err := batch.InsertType(&row)
		if err != nil {
			t.Fatal(err)
		}
		for _, m := range row.Members {
			if err := batch.InsertMember(id, m); err != nil {
				t.Fatal(err)
			}
		}
		fx.types[row.Name] = id
	}
	refs := [][2]string{{"Shape", "Point"}, {"Shape", "core::integer::u256"}, {"Event", "Shape"}}
	for _, ref := range refs {
		if err := batch.InsertTypeRef(fx.types[ref[0]], fx.types[ref[1]]); err != nil {
			t.Fatal(err)
		}
	}

	fn, err := batch.InsertFunction(&store.Function{ContractID: fx.contract, Name: "draw", Kind: store.FunctionKindExternal, StateMutability: "external"})
	if err != nil {
		t.Fatal(err)
	}
	if err := batch.InsertParam(fn, store.DirectionInput, store.Param{Position: 0, Name: "shape", Type: "Shape"}); err != nil {
		t.Fatal(err)
	}
	if err := batch.InsertImpl(&store.Impl{ContractID: fx.contract, Name: "ShapesImpl", InterfaceName: "IShapes"}); err != nil {
		t.Fatal(err)
	}
	if err := batch.InsertTag(&store.Tag{Subject: store.SubjectType, SubjectID: int64(fx.types["Point"]), Tag: "leaf", Reason: "test"}); err != nil {
		t.Fatal(err)
	}
	if err := batch.Commit(); err != nil {
		t.Fatal(err)
	}

	logger, _ := test.NewNullLogger()
	return &Server{store: st, port: 8080, log: logger}, fx
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	s.routes().ServeHTTP(w, req)
	return w
}

func itoa(id store.ContractID) string {
	return strconv.FormatInt(int64(id), 10)
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestHandleHealth(t *testing.T) {
	s, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()

	s.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	decode(t, w, &resp)
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got '%s'", resp["status"])
	}
}

func TestHandleHealthMethodNotAllowed(t *testing.T) {
	s, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/health", nil)
	w := httptest.NewRecorder()
	s.routes().ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/contracts", nil)
	w := httptest.NewRecorder()
	s.routes().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS header")
	}
}

func TestHandleStats(t *testing.T) {
	s, _ := setupTestServer(t)

	w := get(t, s, "/api/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var stats store.Stats
	decode(t, w, &stats)
	if stats.ContractCount != 2 || stats.FailedCount != 1 {
		t.Errorf("unexpected contract counts: %+v", stats)
	}
	if stats.TypeCount != 3 || stats.EventCount != 1 {
		t.Errorf("expected 3 types and 1 event, got %d and %d", stats.TypeCount, stats.EventCount)
	}
	if stats.FunctionCount != 1 {
		t.Errorf("expected 1 function, got %d", stats.FunctionCount)
	}
}

func TestHandleContracts(t *testing.T) {
	s, _ := setupTestServer(t)

	w := get(t, s, "/api/contracts")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var contracts []store.Contract
	decode(t, w, &contracts)
	if len(contracts) != 2 {
		t.Fatalf("expected 2 contracts, got %d", len(contracts))
	}

	w = get(t, s, "/api/contracts?failed=true")
	contracts = nil
	decode(t, w, &contracts)
	if len(contracts) != 1 || contracts[0].Name != "broken" {
		t.Errorf("expected only the broken contract, got %+v", contracts)
	}
}

func TestHandleContract(t *testing.T) {
	s, fx := setupTestServer(t)

	w := get(t, s, "/api/contracts/"+itoa(fx.contract))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp struct {
		store.Contract
		Types []store.Type `json:"types"`
		Impls []store.Impl `json:"impls"`
	}
	decode(t, w, &resp)
	if resp.Name != "shapes" || resp.TypeCount != 4 || resp.FunctionCount != 1 {
		t.Errorf("unexpected contract: %+v", resp.Contract)
	}
	if len(resp.Types) != 4 {
		t.Errorf("expected 4 types, got %d", len(resp.Types))
	}
	if len(resp.Impls) != 1 || resp.Impls[0].InterfaceName != "IShapes" {
		t.Errorf("unexpected impls: %+v", resp.Impls)
	}
}

func TestHandleContractErrors(t *testing.T) {
	s, fx := setupTestServer(t)

	tests := []struct {
		target string
		status int
	}{
		{"/api/contracts/abc", http.StatusBadRequest},
		{"/api/contracts/999", http.StatusNotFound},
		{"/api/contracts/" + itoa(fx.contract) + "/unknown", http.StatusNotFound},
		{"/api/contracts/" + itoa(fx.contract) + "/types/Missing", http.StatusNotFound},
		{"/api/contracts/" + itoa(fx.failed) + "/abi", http.StatusNotFound},
		{"/api/contracts/" + itoa(fx.contract) + "/abi?path=enums.Nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		if w := get(t, s, tt.target); w.Code != tt.status {
			t.Errorf("GET %s: expected status %d, got %d", tt.target, tt.status, w.Code)
		}
	}
}

func TestHandleContractFunctions(t *testing.T) {
	s, fx := setupTestServer(t)

	w := get(t, s, "/api/contracts/"+itoa(fx.contract)+"/functions")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var functions []store.Function
	decode(t, w, &functions)
	if len(functions) != 1 || functions[0].Name != "draw" {
		t.Fatalf("unexpected functions: %+v", functions)
	}
	if len(functions[0].Inputs) != 1 || functions[0].Inputs[0].Type != "Shape" {
		t.Errorf("unexpected inputs: %+v", functions[0].Inputs)
	}
}

func TestHandleContractABI(t *testing.T) {
	s, fx := setupTestServer(t)

	w := get(t, s, "/api/contracts/"+itoa(fx.contract)+"/abi?path=structures.Point.members")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var members map[string]string
	decode(t, w, &members)
	if members["x"] != "core::felt252" || len(members) != 2 {
		t.Errorf("unexpected members: %v", members)
	}

	w = get(t, s, "/api/contracts/"+itoa(fx.contract)+"/abi?pretty=true")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "\n") {
		t.Error("expected pretty printed output")
	}
}

func TestHandleType(t *testing.T) {
	s, fx := setupTestServer(t)

	w := get(t, s, "/api/contracts/"+itoa(fx.contract)+"/types/Shape")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp struct {
		store.Type
		Tags       []store.Tag     `json:"tags"`
		References []store.TypeRef `json:"references"`
	}
	decode(t, w, &resp)
	if resp.Kind != store.TypeKindEnum || len(resp.Members) != 2 {
		t.Errorf("unexpected type: %+v", resp.Type)
	}
	if len(resp.References) != 2 {
		t.Errorf("expected 2 references, got %+v", resp.References)
	}

	// Path names keep their "::" separators.
	w = get(t, s, "/api/contracts/"+itoa(fx.contract)+"/types/core::integer::u256")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 for core type, got %d", w.Code)
	}

	w = get(t, s, "/api/contracts/"+itoa(fx.contract)+"/types/Point")
	resp.Tags = nil
	decode(t, w, &resp)
	if len(resp.Tags) != 1 || resp.Tags[0].Tag != "leaf" {
		t.Errorf("unexpected tags: %+v", resp.Tags)
	}
}

func TestHandleSearch(t *testing.T) {
	s, _ := setupTestServer(t)

	w := get(t, s, "/api/search?query=Sha")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var results []store.SearchResult
	decode(t, w, &results)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Name != "Shape" || results[0].ContractPath != "target/dev/shapes.contract_class.json" {
		t.Errorf("unexpected result: %+v", results[0])
	}
}

func TestHandleSearchNoQuery(t *testing.T) {
	s, _ := setupTestServer(t)

	if w := get(t, s, "/api/search"); w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestHandleStatic(t *testing.T) {
	s, _ := setupTestServer(t)

	w := get(t, s, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "localhost:8080/api/contracts/1") {
		t.Error("expected port to be rendered into the index page")
	}

	if w := get(t, s, "/nope"); w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}
