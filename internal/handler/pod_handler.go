package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hitoshi/subpod/internal/middleware"
	"github.com/hitoshi/subpod/internal/model"
	"github.com/hitoshi/subpod/internal/pod"
)

// maxActionBodySize はアクションリクエストボディの最大サイズ。
const maxActionBodySize = 1 << 20

const errCodeInvalidRequest = "INVALID_REQUEST"

// PodService はpodハンドラーが必要とするサービスインターフェース。
// pod.Podが実装する。
type PodService interface {
	ReadData(ctx context.Context, caseID int64) (*model.DisplayContent, error)
	PerformAction(ctx context.Context, actionType string, payload json.RawMessage) (*model.ActionResult, error)
}

// PodHandler はホストから呼び出されるpodのHTTPハンドラー。
type PodHandler struct {
	service  PodService
	metadata pod.Metadata
}

// NewPodHandler はPodHandlerを生成する。
func NewPodHandler(service PodService, metadata pod.Metadata) *PodHandler {
	return &PodHandler{
		service:  service,
		metadata: metadata,
	}
}

// actionRequest はアクション実行リクエストのボディ。
type actionRequest struct {
	CaseID *int64 `json:"case_id"`
	Action struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	} `json:"action"`
}

// Describe はpodのメタデータと設定スキーマを返す。
// GET /pod
func (h *PodHandler) Describe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.metadata)
}

// Read はケースの購読情報を表示内容として返す。
// GET /pod/read?case_id=<id>
func (h *PodHandler) Read(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("case_id")
	caseID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidCaseIDError(raw))
		return
	}

	content, err := h.service.ReadData(r.Context(), caseID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, content)
}

// Action はホストから指示されたアクションを実行する。
// POST /pod/action
func (h *PodHandler) Action(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxActionBodySize)

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     errCodeInvalidRequest,
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	attrs := []any{slog.String("action_type", req.Action.Type)}
	if req.CaseID != nil {
		attrs = append(attrs, slog.Int64("case_id", *req.CaseID))
	}
	slog.Info("pod action requested", attrs...)

	result, err := h.service.PerformAction(r.Context(), req.Action.Type, req.Action.Payload)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
