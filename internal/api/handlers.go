package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	xerrors "taskboard/internal/errors"
	"taskboard/internal/observability/alerting"
	"taskboard/internal/task"
)

const maxBodyBytes = 1 << 20

const (
	msgInvalidBody = "Invalid request body"
	msgInternal    = "Internal server error"
	msgDeleted     = "Task deleted"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct{ Title string }{Title: s.title}
	if err := s.index.Execute(w, data); err != nil {
		s.log.Error("渲染首页失败", slog.Any("error", err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.svc.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	// 无法解析或缺少 task 字段都按空内容处理，交给服务层统一拒绝。
	var content string
	if body, err := readBody(r); err == nil {
		var req struct {
			Task any `json:"task"`
		}
		if json.Unmarshal(body, &req) == nil {
			content, _ = req.Task.(string)
		}
	}

	created, err := s.svc.Create(r.Context(), content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: task.ErrTaskNotFound.Message()})
		return
	}

	content, valid := decodeUpdate(r)
	if !valid {
		// 任务不存在时优先返回 404。
		if _, err := s.svc.Get(r.Context(), id); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidBody})
		return
	}

	updated, err := s.svc.Update(r.Context(), id, content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: task.ErrTaskNotFound.Message()})
		return
	}
	if err := s.svc.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msgDeleted})
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: task.ErrTaskNotFound.Message()})
		return
	}
	toggled, err := s.svc.Toggle(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toggled)
}

// pathID 只接受十进制正整数，与整型路由参数的匹配规则一致。
func pathID(r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	if raw == "" {
		return 0, false
	}
	for _, c := range raw {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// decodeUpdate 解析可选的 task 字段。请求体为空、为 {} 或 task 为 null 时
// 返回 (nil, true)；请求体不是 JSON 对象或 task 不是字符串时返回 false。
func decodeUpdate(r *http.Request) (*string, bool) {
	body, err := readBody(r)
	if err != nil {
		return nil, false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, true
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, false
	}
	raw, present := fields["task"]
	if !present || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, true
	}
	var content string
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil, false
	}
	return &content, true
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch xerrors.CodeOf(err) {
	case task.CodeTaskNotFound:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: task.ErrTaskNotFound.Message()})
		return
	case task.CodeTaskValidation:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: task.ErrTaskEmpty.Message()})
		return
	}

	requestID := requestIDFrom(r.Context())
	s.log.Error("处理请求失败",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", requestID),
		slog.String("code", string(xerrors.CodeOf(err))),
		slog.Any("error", err),
	)
	if s.alerts != nil && xerrors.ShouldAlert(err) {
		event := alerting.FromError(err)
		event.Route = r.Pattern
		event.Method = r.Method
		event.RequestID = requestID
		if id, ok := pathID(r); ok {
			event.TaskID = id
		}
		if notifyErr := s.alerts.Notify(r.Context(), event); notifyErr != nil {
			s.log.Warn("发送告警失败", slog.Any("error", notifyErr))
		}
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgInternal})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
