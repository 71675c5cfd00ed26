package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	auditrepository "github.com/smallbiznis/servicebay/internal/audit/repository"
	auditservice "github.com/smallbiznis/servicebay/internal/audit/service"
	"github.com/smallbiznis/servicebay/internal/clock"
	"github.com/smallbiznis/servicebay/internal/config"
	customerrepository "github.com/smallbiznis/servicebay/internal/customer/repository"
	customerservice "github.com/smallbiznis/servicebay/internal/customer/service"
	invoicerepository "github.com/smallbiznis/servicebay/internal/invoice/repository"
	invoiceservice "github.com/smallbiznis/servicebay/internal/invoice/service"
	jobpartdomain "github.com/smallbiznis/servicebay/internal/jobpart/domain"
	jobpartrepository "github.com/smallbiznis/servicebay/internal/jobpart/repository"
	jobpartservice "github.com/smallbiznis/servicebay/internal/jobpart/service"
	mechanicdomain "github.com/smallbiznis/servicebay/internal/mechanic/domain"
	mechanicservice "github.com/smallbiznis/servicebay/internal/mechanic/service"
	"github.com/smallbiznis/servicebay/internal/migration"
	"github.com/smallbiznis/servicebay/internal/observability"
	"github.com/smallbiznis/servicebay/internal/providers/pdf"
	"github.com/smallbiznis/servicebay/internal/providers/spreadsheet"
	"github.com/smallbiznis/servicebay/internal/ratelimit"
	servicejobdomain "github.com/smallbiznis/servicebay/internal/servicejob/domain"
	servicejobrepository "github.com/smallbiznis/servicebay/internal/servicejob/repository"
	servicejobservice "github.com/smallbiznis/servicebay/internal/servicejob/service"
	sparepartdomain "github.com/smallbiznis/servicebay/internal/sparepart/domain"
	sparepartservice "github.com/smallbiznis/servicebay/internal/sparepart/service"
	vehiclerepository "github.com/smallbiznis/servicebay/internal/vehicle/repository"
	vehicleservice "github.com/smallbiznis/servicebay/internal/vehicle/service"
	"github.com/smallbiznis/servicebay/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	*Server
	db *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, migration.AutoMigrate(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	shopCfg := config.DefaultShopConfig()
	shopCfg.Name = "Garage 9"
	shopCfg.CurrencySymbol = "Rs."
	shop := config.NewStaticShopConfigHolder(shopCfg)

	auditSvc := auditservice.NewService(auditservice.Params{DB: db, Log: log, GenID: node, Clock: fake, Repo: auditrepository.Provide()})
	invoiceRepo := invoicerepository.Provide()

	srv := NewServer(ServerParams{
		Gin:      NewEngine(observability.Config{}, nil),
		Cfg:      config.Config{StockAlert: config.StockAlertConfig{Schedule: "off", Threshold: 3}},
		Log:      log,
		Shop:     shop,
		AuditSvc: auditSvc,
		CustomerSvc: customerservice.New(customerservice.Params{
			DB: db, Log: log, GenID: node, Clock: fake, Repo: customerrepository.Provide(), AuditSvc: auditSvc,
		}),
		VehicleSvc: vehicleservice.New(vehicleservice.Params{
			DB: db, Log: log, GenID: node, Clock: fake, Repo: vehiclerepository.Provide(), AuditSvc: auditSvc,
		}),
		MechanicSvc: mechanicservice.New(mechanicservice.Params{
			DB: db, Log: log, GenID: node, Clock: fake, Repo: repository.ProvideStore[mechanicdomain.Mechanic](db), AuditSvc: auditSvc,
		}),
		PartSvc: sparepartservice.New(sparepartservice.Params{
			Log: log, GenID: node, Clock: fake, Repo: repository.ProvideStore[sparepartdomain.SparePart](db), AuditSvc: auditSvc,
		}),
		JobSvc: servicejobservice.New(servicejobservice.Params{
			DB: db, Log: log, GenID: node, Clock: fake, Shop: shop, Repo: servicejobrepository.Provide(), InvoiceRepo: invoiceRepo, AuditSvc: auditSvc,
		}),
		JobPartSvc: jobpartservice.New(jobpartservice.Params{
			DB: db, Log: log, GenID: node, Clock: fake, Repo: jobpartrepository.Provide(), AuditSvc: auditSvc,
		}),
		InvoiceSvc: invoiceservice.New(invoiceservice.Params{
			DB: db, Log: log, Clock: fake, Shop: shop, Repo: invoiceRepo, PDF: pdf.New(), Sheets: spreadsheet.New(), AuditSvc: auditSvc,
		}),
	})
	return &testServer{Server: srv, db: db}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.Engine().ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   errorPayload    `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var out envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func createdID(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var obj struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &obj))
	require.NotEmpty(t, obj.ID)
	return obj.ID
}

func (ts *testServer) seedJob(t *testing.T) (jobID, partA, partB string) {
	t.Helper()

	customerID := createdID(t, ts.do(t, http.MethodPost, "/api/customers", map[string]any{
		"FullName": "Asha Rao", "Email": "asha@example.com", "Address": "12 MG Road",
	}))
	vehicleID := createdID(t, ts.do(t, http.MethodPost, "/api/vehicles", map[string]any{
		"RegistrationNo": "ka01ab1234", "Make": "Maruti", "Model": "Swift", "CustomerID": customerID,
	}))
	mechanicID := createdID(t, ts.do(t, http.MethodPost, "/api/mechanics", map[string]any{"Name": "Suresh"}))
	partA = createdID(t, ts.do(t, http.MethodPost, "/api/parts", `{"Name":"Brake pad","Stock":5,"Price":500}`))
	partB = createdID(t, ts.do(t, http.MethodPost, "/api/parts", `{"Name":"Clutch plate","Stock":3,"Price":"1200.00"}`))

	rec := ts.do(t, http.MethodPost, "/api/jobs", map[string]any{
		"VehicleID": vehicleID, "MechanicID": mechanicID, "Date": "2024-06-03", "Notes": "periodic service",
	})
	jobID = createdID(t, rec)

	var job servicejobdomain.ServiceJob
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &job))
	assert.Equal(t, servicejobdomain.StatusAssigned, job.Status)
	return jobID, partA, partB
}

func TestJobLifecycle(t *testing.T) {
	ts := newTestServer(t)
	jobID, partA, partB := ts.seedJob(t)

	rec := ts.do(t, http.MethodPost, "/api/jobs/"+jobID+"/parts", map[string]any{"partId": partA, "quantity": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Part added to job successfully", decode(t, rec).Message)

	rec = ts.do(t, http.MethodPost, "/api/jobs/"+jobID+"/parts", `{"partId":`+partB+`,"quantity":1}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/jobs/"+jobID+"/parts", map[string]any{"partId": partB, "quantity": 10})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "business_rule_violation", body.Error.Type)
	assert.Equal(t, "Insufficient stock for this part.", body.Error.Message)

	rec = ts.do(t, http.MethodPut, "/api/jobs/"+jobID+"/status", map[string]any{"status": "In Progress"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Job status updated to In Progress", decode(t, rec).Message)

	rec = ts.do(t, http.MethodPut, "/api/jobs/"+jobID+"/status", `{"status":"Completed","laborCharges":800}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Invoice generated successfully for Rs.3000.00", decode(t, rec).Message)

	rec = ts.do(t, http.MethodPost, "/api/jobs/"+jobID+"/complete", `{"laborCharges":100}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "job_already_invoiced", decode(t, rec).Error.Code)

	rec = ts.do(t, http.MethodGet, "/api/invoices", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var invoices []struct {
		ID           string `json:"id"`
		CustomerName string `json:"customer_name"`
		Amount       string `json:"amount"`
		Status       string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &invoices))
	require.Len(t, invoices, 1)
	assert.Equal(t, "Asha Rao", invoices[0].CustomerName)
	assert.Equal(t, "3000.00", invoices[0].Amount)
	assert.Equal(t, "Unpaid", invoices[0].Status)
	invoiceID := invoices[0].ID

	rec = ts.do(t, http.MethodPut, "/api/invoices/"+invoiceID+"/status", map[string]any{"status": "Refunded"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body = decode(t, rec)
	require.Len(t, body.Error.Errors, 1)
	assert.Equal(t, "Invalid status provided.", body.Error.Errors[0].Message)

	rec = ts.do(t, http.MethodPut, "/api/invoices/"+invoiceID+"/status", map[string]any{"status": "Paid"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Invoice status updated to Paid", decode(t, rec).Message)

	rec = ts.do(t, http.MethodGet, "/api/invoices/"+invoiceID+"/pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "asha-rao-inv-20240603-0001.pdf")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}

func TestDetachRestoresStock(t *testing.T) {
	ts := newTestServer(t)
	jobID, partA, _ := ts.seedJob(t)

	rec := ts.do(t, http.MethodPost, "/api/jobs/"+jobID+"/parts", map[string]any{"partId": partA, "quantity": 4})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/jobs/"+jobID+"/parts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var parts []struct {
		ID           string `json:"id"`
		QuantityUsed int64  `json:"quantity_used"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &parts))
	require.Len(t, parts, 1)
	assert.EqualValues(t, 4, parts[0].QuantityUsed)

	var stock int64
	require.NoError(t, ts.db.Raw(`SELECT stock FROM spare_parts WHERE id = ?`, partA).Scan(&stock).Error)
	assert.EqualValues(t, 1, stock)

	rec = ts.do(t, http.MethodDelete, "/api/job-parts/"+parts[0].ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Part removed from job successfully", decode(t, rec).Message)

	require.NoError(t, ts.db.Raw(`SELECT stock FROM spare_parts WHERE id = ?`, partA).Scan(&stock).Error)
	assert.EqualValues(t, 5, stock)

	var rows int64
	require.NoError(t, ts.db.Model(&jobpartdomain.JobPart{}).Count(&rows).Error)
	assert.Zero(t, rows)

	rec = ts.do(t, http.MethodDelete, "/api/job-parts/"+parts[0].ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAttachAcceptsQuotedQuantity(t *testing.T) {
	ts := newTestServer(t)
	jobID, partA, _ := ts.seedJob(t)

	rec := ts.do(t, http.MethodPost, "/api/jobs/"+jobID+"/parts", `{"partId":"`+partA+`","quantity":"2"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var stock int64
	require.NoError(t, ts.db.Raw(`SELECT stock FROM spare_parts WHERE id = ?`, partA).Scan(&stock).Error)
	assert.EqualValues(t, 3, stock)

	for _, quantity := range []string{`"two"`, `"1.5"`, `""`} {
		rec = ts.do(t, http.MethodPost, "/api/jobs/"+jobID+"/parts", `{"partId":"`+partA+`","quantity":`+quantity+`}`)
		require.Equal(t, http.StatusBadRequest, rec.Code, quantity)
		body := decode(t, rec)
		require.Len(t, body.Error.Errors, 1)
		assert.Equal(t, "invalid_quantity", body.Error.Errors[0].Code, quantity)
	}

	require.NoError(t, ts.db.Raw(`SELECT stock FROM spare_parts WHERE id = ?`, partA).Scan(&stock).Error)
	assert.EqualValues(t, 3, stock)
}

func TestStrictTransitions(t *testing.T) {
	ts := newTestServer(t)
	jobID, _, _ := ts.seedJob(t)

	rec := ts.do(t, http.MethodPut, "/api/jobs/"+jobID+"/status", map[string]any{"status": "Scheduled"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_transition", decode(t, rec).Error.Code)

	rec = ts.do(t, http.MethodPut, "/api/jobs/"+jobID+"/status", map[string]any{"status": "Invoiced"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/jobs/"+jobID+"/status", map[string]any{"status": "Parked"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_status", decode(t, rec).Error.Errors[0].Code)

	rec = ts.do(t, http.MethodPost, "/api/jobs/"+jobID+"/complete", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "labor_charges_required", decode(t, rec).Error.Errors[0].Code)
}

func TestValidationAndNotFound(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/customers", map[string]any{"FullName": "No Mail"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "validation_error", body.Error.Type)
	assert.Equal(t, "invalid_email", body.Error.Errors[0].Code)
	assert.Equal(t, "email", body.Error.Errors[0].Field)

	rec = ts.do(t, http.MethodPost, "/api/customers", `{"FullName":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decode(t, rec).Error.Errors[0].Code)

	rec = ts.do(t, http.MethodGet, "/api/jobs/12345", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "service_job_not_found", decode(t, rec).Error.Code)

	rec = ts.do(t, http.MethodGet, "/api/jobs/abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_job_id", decode(t, rec).Error.Errors[0].Code)

	rec = ts.do(t, http.MethodPost, "/api/jobs", map[string]any{"VehicleID": "1", "Date": "next tuesday"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_date", decode(t, rec).Error.Errors[0].Code)

	rec = ts.do(t, http.MethodGet, "/api/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCustomerWithVehiclesCannotBeDeleted(t *testing.T) {
	ts := newTestServer(t)
	ts.seedJob(t)

	var customerID snowflake.ID
	require.NoError(t, ts.db.Raw(`SELECT id FROM customers LIMIT 1`).Scan(&customerID).Error)

	rec := ts.do(t, http.MethodDelete, "/api/customers/"+customerID.String(), nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "customer_has_vehicles", decode(t, rec).Error.Code)
}

func TestAuditLogsCarryOperator(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/mechanics", map[string]any{"Name": "Ravi"}, HeaderOperator, "desk-2")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/audit-logs?target_type=mechanic", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var logs []struct {
		Action    string  `json:"action"`
		ActorType string  `json:"actor_type"`
		ActorID   *string `json:"actor_id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &logs))
	require.NotEmpty(t, logs)
	assert.Equal(t, "operator", logs[0].ActorType)
	require.NotNil(t, logs[0].ActorID)
	assert.Equal(t, "desk-2", *logs[0].ActorID)

	rec = ts.do(t, http.MethodGet, "/api/audit-logs?start_at=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFlexID(t *testing.T) {
	var req struct {
		A flexID `json:"a"`
		B flexID `json:"b"`
		C flexID `json:"c"`
		D flexID `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"42","b":17,"c":null,"d":""}`), &req))
	assert.Equal(t, snowflake.ID(42), req.A.ID())
	assert.Equal(t, snowflake.ID(17), req.B.ID())
	assert.Nil(t, req.C.Ptr())
	assert.Zero(t, req.D)

	assert.Error(t, json.Unmarshal([]byte(`{"a":"x1"}`), &req))

	var qty struct {
		A flexQuantity `json:"a"`
		B flexQuantity `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":" 3 ","b":"x"}`), &qty))
	assert.Equal(t, flexQuantity{value: 3}, qty.A)
	assert.True(t, qty.B.invalid)
}

func TestMapError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{jobpartdomain.ErrInsufficientStock, http.StatusBadRequest, "business_rule_violation"},
		{servicejobdomain.ErrMechanicRequired, http.StatusConflict, "conflict"},
		{servicejobdomain.ErrInvalidLaborCharges, http.StatusBadRequest, "validation_error"},
		{ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{gorm.ErrRecordNotFound, http.StatusNotFound, "not_found"},
		{errors.New("connection reset"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		status, payload := mapError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.kind, payload.Type, tc.err.Error())
	}

	kind, code := classifyErrorForLog(servicejobdomain.ErrIllegalTransition)
	assert.Equal(t, "conflict", kind)
	assert.Equal(t, "invalid_transition", code)
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, "1", retryAfterSeconds(nil))
	assert.Equal(t, "1", retryAfterSeconds(&ratelimit.Result{RetryAfter: 200 * time.Millisecond}))
	assert.Equal(t, "3", retryAfterSeconds(&ratelimit.Result{RetryAfter: 2100 * time.Millisecond}))
}

func TestReadsBypassRateLimiter(t *testing.T) {
	assert.True(t, isMutation(http.MethodPost))
	assert.True(t, isMutation(http.MethodDelete))
	assert.False(t, isMutation(http.MethodGet))
}

func TestLowStockReport(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/parts", `{"Name":"Wiper blade","Stock":2,"Price":150}`)
	ts.do(t, http.MethodPost, "/api/parts", `{"Name":"Spark plug","Stock":9,"Price":90}`)

	rec := ts.do(t, http.MethodGet, "/api/reports/low-stock", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var parts []sparepartdomain.SparePart
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &parts))
	require.Len(t, parts, 1)
	assert.Equal(t, "Wiper blade", parts[0].Name)

	rec = ts.do(t, http.MethodGet, "/api/reports/low-stock?threshold=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &parts))
	assert.Len(t, parts, 2)

	rec = ts.do(t, http.MethodGet, "/api/reports/low-stock?threshold=lots", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "validation_error", body.Error.Type)
	require.Len(t, body.Error.Errors, 1)
	assert.Equal(t, "invalid_threshold", body.Error.Errors[0].Code)
}

func TestInvoiceRegisterDownload(t *testing.T) {
	ts := newTestServer(t)
	jobID, partA, _ := ts.seedJob(t)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/jobs/"+jobID+"/parts",
		map[string]any{"partId": partA, "quantity": 2}).Code)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/jobs/"+jobID+"/complete",
		map[string]any{"laborCharges": 300}).Code)

	rec := ts.do(t, http.MethodGet, "/api/reports/invoices.xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, spreadsheet.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "garage-9-invoices-2024-06-03.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(spreadsheet.RegisterSheet)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(rows), 5)
}

func TestJobRequestsShareCorrelationID(t *testing.T) {
	ts := newTestServer(t)
	jobID, partA, _ := ts.seedJob(t)

	rec := ts.do(t, http.MethodPost, "/api/jobs/"+jobID+"/parts", map[string]any{"partId": partA, "quantity": 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "job-"+jobID, rec.Header().Get("X-Correlation-Id"))

	rec = ts.do(t, http.MethodPost, "/api/jobs/"+jobID+"/parts", map[string]any{"partId": partA, "quantity": 1},
		"X-Correlation-Id", "front-desk-9")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "front-desk-9", rec.Header().Get("X-Correlation-Id"))
}

func TestJobHistoryCollectsPartsAndInvoice(t *testing.T) {
	ts := newTestServer(t)
	jobID, partA, _ := ts.seedJob(t)

	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/jobs/"+jobID+"/parts",
		map[string]any{"partId": partA, "quantity": 1}).Code)
	rec := ts.do(t, http.MethodPost, "/api/jobs/"+jobID+"/complete", `{"laborCharges":250}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var invoice struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &invoice))
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPut, "/api/invoices/"+invoice.ID+"/status",
		map[string]any{"status": "Paid"}).Code)

	rec = ts.do(t, http.MethodGet, "/api/jobs/"+jobID+"/history", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var history []struct {
		Action string `json:"action"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &history))
	actions := make([]string, 0, len(history))
	for _, h := range history {
		actions = append(actions, h.Action)
	}
	require.NotEmpty(t, actions)
	assert.Equal(t, "service_job.created", actions[0])
	assert.Contains(t, actions, "job_part.attached")
	assert.Contains(t, actions, "service_job.invoiced")
	assert.Equal(t, "invoice.status_changed", actions[len(actions)-1])

	rec = ts.do(t, http.MethodGet, "/api/audit-logs?job_id=not-a-job", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
