package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"qr-dashboard/internal/esp32"
	"qr-dashboard/internal/models"
	"qr-dashboard/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
)

// ---- fake device ----

type fakeDevice struct {
	mu    sync.Mutex
	calls int
	body  string
	err   error
}

func (f *fakeDevice) Classify(ctx context.Context, qr string) (*esp32.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return esp32.DecodeReply([]byte(f.body))
}

type blockingDevice struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingDevice) Classify(ctx context.Context, qr string) (*esp32.Reply, error) {
	b.entered <- struct{}{}
	<-b.release
	return esp32.DecodeReply([]byte(`{"status":"ok","posicao":1}`))
}

func newTestRouter(t *testing.T, device service.Classifier) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zaptest.NewLogger(t)
	h := NewHandler(service.NewDashboard(device, nil, logger), logger)

	router := gin.New()
	h.RegisterRoutes(router)
	return router
}

func postForm(router *gin.Engine, qr string) *httptest.ResponseRecorder {
	form := url.Values{"qr": {qr}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func postJSON(router *gin.Engine, qr string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]string{"qr": qr})
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) View {
	t.Helper()
	var v View
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("response is not a JSON view: %v\n%s", err, w.Body.String())
	}
	return v
}

// ---- tests ----

func TestIndex_InitialPage(t *testing.T) {
	router := newTestRouter(t, &fakeDevice{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content-type = %q", ct)
	}

	page := w.Body.String()
	for _, want := range []string{
		"QR Code Classification Dashboard",
		models.StatusAwaiting,
		"Send to ESP32",
		"LED State (Inferred)",
		"Position 1", "Position 2", "Position 3",
		"Position 4", "Position 5", "Position 6",
		"⚠️ Alert",
	} {
		if !strings.Contains(page, want) {
			t.Fatalf("page is missing %q", want)
		}
	}
	if strings.Contains(page, colorOn) {
		t.Fatalf("no light should be on before the first submission")
	}
	if strings.Contains(page, `id="response-output"`) {
		t.Fatalf("response panel shown before any submission")
	}
}

func TestSubmit_FormRendersOutcome(t *testing.T) {
	device := &fakeDevice{body: `{"status":"ok","posicao":3}`}
	router := newTestRouter(t, device)

	w := postForm(router, "  CX33333 ")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	page := w.Body.String()
	for _, want := range []string{
		"✅ Success | Last update: ",
		"QR sent: CX33333",
		"Device response:",
		`value="CX33333"`,
		colorOn,
	} {
		if !strings.Contains(page, want) {
			t.Fatalf("page is missing %q\n%s", want, page)
		}
	}
	if strings.Count(page, colorOn) != 1 {
		t.Fatalf("exactly one light should be on")
	}
}

func TestSubmit_BlankShowsNoticeWithoutCallingDevice(t *testing.T) {
	device := &fakeDevice{body: `{"status":"ok","posicao":1}`}
	router := newTestRouter(t, device)

	w := postForm(router, "   ")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	page := w.Body.String()
	if !strings.Contains(page, BlankNotice) || !strings.Contains(page, models.StatusAwaiting) {
		t.Fatalf("blank submission page missing notice or banner\n%s", page)
	}
	if device.calls != 0 {
		t.Fatalf("device called %d times for blank input", device.calls)
	}
}

func TestSubmit_JSONNegotiation(t *testing.T) {
	device := &fakeDevice{body: `{"status":"ok","posicao":5}`}
	router := newTestRouter(t, device)

	w := postJSON(router, "CX55555")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	v := decodeView(t, w)
	if !strings.HasPrefix(v.Banner, "✅ Success | Last update: ") {
		t.Fatalf("banner = %q", v.Banner)
	}
	if len(v.Lights) != models.PositionCount+1 {
		t.Fatalf("lights = %d, want 7", len(v.Lights))
	}
	for i, light := range v.Lights {
		wantOn := i == 4
		if light.On != wantOn {
			t.Fatalf("light %q on = %v, want %v", light.Label, light.On, wantOn)
		}
	}
	if v.Attempt == nil || v.Attempt.Position != 5 {
		t.Fatalf("attempt = %+v", v.Attempt)
	}

	// indicator flags keep the device's names
	var body struct {
		Indicators map[string]bool `json:"indicators"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode indicators: %v", err)
	}
	if !body.Indicators["pos5"] || body.Indicators["alerta"] || len(body.Indicators) != 7 {
		t.Fatalf("indicators = %v", body.Indicators)
	}
}

func TestSubmit_BlankJSON(t *testing.T) {
	device := &fakeDevice{}
	router := newTestRouter(t, device)

	v := decodeView(t, postJSON(router, ""))
	if v.Notice != BlankNotice || v.Banner != models.StatusAwaiting {
		t.Fatalf("view = %+v", v)
	}
	if device.calls != 0 {
		t.Fatalf("device called for blank input")
	}
}

func TestSubmit_DeviceHTTPErrorShownInPanel(t *testing.T) {
	device := &fakeDevice{err: &esp32.StatusError{Code: http.StatusInternalServerError}}
	router := newTestRouter(t, device)

	v := decodeView(t, postJSON(router, "CX1"))

	if !strings.HasPrefix(v.Banner, "❌ Request error | Last update: ") {
		t.Fatalf("banner = %q", v.Banner)
	}
	if !strings.Contains(v.Response, "500") {
		t.Fatalf("response = %q", v.Response)
	}
	if !v.Indicators.Alert {
		t.Fatalf("alert light should be on")
	}
}

func TestIndex_ReflectsLastSubmission(t *testing.T) {
	device := &fakeDevice{body: `{"status":"invalid_code"}`}
	router := newTestRouter(t, device)
	postForm(router, "XX")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	v := decodeView(t, w)
	if !v.Indicators.Alert || v.Attempt == nil || v.Attempt.QR != "XX" {
		t.Fatalf("view = %+v", v)
	}
	if !strings.Contains(v.Response, "invalid_code") {
		t.Fatalf("response = %q", v.Response)
	}
}

func TestSubmit_AbandonedWhileQueuedRendersBusyPage(t *testing.T) {
	device := &blockingDevice{entered: make(chan struct{}, 1), release: make(chan struct{})}
	router := newTestRouter(t, device)

	done := make(chan struct{})
	go func() {
		postForm(router, "FIRST")
		close(done)
	}()
	select {
	case <-device.entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("first submission never reached the device")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	form := url.Values{"qr": {"SECOND"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode())).WithContext(ctx)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	close(device.release)
	<-done

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content-type = %q", ct)
	}
	page := w.Body.String()
	if !strings.Contains(page, BusyNotice) || !strings.Contains(page, `value="SECOND"`) {
		t.Fatalf("busy page missing notice or input\n%s", page)
	}
}

func TestNotFound(t *testing.T) {
	router := newTestRouter(t, &fakeDevice{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/state", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
		Path string `json:"path"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || body.Error.Code != "NOT_FOUND" || body.Path != "/api/state" {
		t.Fatalf("body = %+v", body)
	}
}
