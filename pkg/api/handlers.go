package api

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/cutline/pkg/arrange"
	"github.com/matzehuels/cutline/pkg/errors"
	"github.com/matzehuels/cutline/pkg/observability"
	"github.com/matzehuels/cutline/pkg/render/groups"
	"github.com/matzehuels/cutline/pkg/scene"
	"github.com/matzehuels/cutline/pkg/session"
	"github.com/matzehuels/cutline/pkg/timeline"
)

// =============================================================================
// Sessions
// =============================================================================

type sessionJSON struct {
	ID          string          `json:"id"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Arrangement json.RawMessage `json:"arrangement"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sc, err := scene.Read(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		s.writeError(w, err)
		return
	}
	sess, err := session.New(sc, s.logger, s.ttl)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.Set(r.Context(), sess); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "store session"))
		return
	}
	observability.Server().OnSession(r.Context(), sess.ID, true)
	s.logger.Info("session opened", "id", sess.ID, "items", sc.Timeline.ItemCount())

	var arr json.RawMessage
	err = sess.Do(func(sc *scene.Scene, _ *arrange.Engine) error {
		arr, err = arrangement(sc)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionJSON{ID: sess.ID, ExpiresAt: sess.ExpiresAt(), Arrangement: arr})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var arr json.RawMessage
	err := sess.Do(func(sc *scene.Scene, _ *arrange.Engine) error {
		var err error
		arr, err = arrangement(sc)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, arr)
}

func (s *Server) handleGetScene(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	err := sess.Do(func(sc *scene.Scene, _ *arrange.Engine) error {
		return scene.WriteTOML(sc, &buf)
	})
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "encode scene"))
		return
	}
	w.Header().Set("Content-Type", "application/toml")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.store.Delete(r.Context(), id)
	if stderrors.Is(err, session.ErrNotFound) {
		s.writeError(w, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id))
		return
	}
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "delete session"))
		return
	}
	observability.Server().OnSession(r.Context(), id, false)
	s.logger.Info("session closed", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// session resolves the {id} parameter, writing a 404 when it names no live
// session.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, err := s.store.Get(r.Context(), id)
	switch {
	case stderrors.Is(err, session.ErrExpired):
		s.writeError(w, errors.New(errors.ErrCodeSessionNotFound, "session %s expired", id))
		return nil, false
	case err != nil:
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "load session"))
		return nil, false
	case sess == nil:
		s.writeError(w, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id))
		return nil, false
	}
	return sess, true
}

func arrangement(sc *scene.Scene) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := scene.WriteJSON(sc, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode arrangement")
	}
	return json.RawMessage(bytes.TrimSpace(buf.Bytes())), nil
}

// =============================================================================
// Operations
// =============================================================================

type placementJSON struct {
	ID        timeline.ItemID `json:"id"`
	Name      string          `json:"name,omitempty"`
	Kind      string          `json:"kind"`
	Track     int             `json:"track"`
	Start     timeline.Frame  `json:"start"`
	Duration  timeline.Frame  `json:"duration"`
	CropStart timeline.Frame  `json:"crop_start"`
	Created   bool            `json:"created,omitempty"`
}

type resultJSON struct {
	Op              string          `json:"op"`
	Status          string          `json:"status"`
	Reason          string          `json:"reason,omitempty"`
	Code            errors.Code     `json:"code,omitempty"`
	VerticalDropped bool            `json:"vertical_dropped,omitempty"`
	NewGroup        string          `json:"new_group,omitempty"`
	Placements      []placementJSON `json:"placements"`
}

func newPlacement(it timeline.Item) placementJSON {
	return placementJSON{
		ID:        it.ID,
		Name:      it.Name,
		Kind:      it.Kind.String(),
		Track:     it.Track,
		Start:     it.Span.Start,
		Duration:  it.Span.Duration,
		CropStart: it.CropStart,
	}
}

func newResult(res arrange.Result, e *arrange.Engine) resultJSON {
	out := resultJSON{
		Op:              res.Op,
		Status:          res.Status.String(),
		VerticalDropped: res.VerticalDropped,
		Placements:      []placementJSON{},
	}
	if res.Rejected() {
		out.Reason = res.Reason.String()
		out.Code = res.Reason.Code()
	}
	if g, ok := e.Timeline().GroupByID(res.NewGroup); ok {
		out.NewGroup = g.Name
	}
	for _, p := range res.Placements {
		it, ok := e.Item(p.ID)
		if !ok {
			continue
		}
		pj := newPlacement(it.WithPlacement(p.After))
		pj.Created = p.Created
		out.Placements = append(out.Placements, pj)
	}
	return out
}

func (s *Server) handleOp(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var op scene.Op
	if !s.decode(w, r, &op) {
		return
	}
	s.apply(w, sess, op)
}

var itemOps = map[string]string{
	"move":         arrange.OpMove,
	"resize-start": arrange.OpResizeStart,
	"resize-end":   arrange.OpResizeEnd,
	"cut":          arrange.OpCut,
}

var groupOps = map[string]string{
	"move":         arrange.OpGroupMove,
	"drag":         arrange.OpGroupDrag,
	"resize-start": arrange.OpGroupResizeStart,
	"resize-end":   arrange.OpGroupResizeEnd,
	"cut":          arrange.OpGroupCut,
}

type itemRequest struct {
	Frame *scene.Time `json:"frame"`
	Track int         `json:"track,omitempty"`
}

type groupRequest struct {
	Frames scene.Time `json:"frames"`
	Tracks int        `json:"tracks,omitempty"`
	DY     int        `json:"dy,omitempty"`

	// Frame is the cut position for the cut action.
	Frame scene.Time `json:"frame,omitzero"`
}

func (s *Server) handleItemAction(w http.ResponseWriter, r *http.Request) {
	name, ok := itemOps[chi.URLParam(r, "action")]
	if !ok {
		s.writeError(w, errors.New(errors.ErrCodeNotFound, "unknown item action %q", chi.URLParam(r, "action")))
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req itemRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Frame == nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "frame is required"))
		return
	}
	s.apply(w, sess, scene.Op{Name: name, Item: chi.URLParam(r, "name"), Frame: *req.Frame, Track: req.Track})
}

func (s *Server) handleGroupAction(w http.ResponseWriter, r *http.Request) {
	name, ok := groupOps[chi.URLParam(r, "action")]
	if !ok {
		s.writeError(w, errors.New(errors.ErrCodeNotFound, "unknown group action %q", chi.URLParam(r, "action")))
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req groupRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.apply(w, sess, scene.Op{
		Name:   name,
		Group:  chi.URLParam(r, "name"),
		Frame:  req.Frame,
		Frames: req.Frames,
		Tracks: req.Tracks,
		DY:     req.DY,
	})
}

func (s *Server) apply(w http.ResponseWriter, sess *session.Session, op scene.Op) {
	var out resultJSON
	var res arrange.Result
	err := sess.Do(func(sc *scene.Scene, e *arrange.Engine) error {
		var err error
		res, err = sc.Apply(e, op)
		if err != nil {
			return err
		}
		out = newResult(res, e)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Debug("op applied", "session", sess.ID, "op", op, "result", res)
	status := http.StatusOK
	if res.Rejected() {
		status = statusFor(res.Reason.Code())
	}
	writeJSON(w, status, out)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return false
	}
	return true
}

// =============================================================================
// Queries
// =============================================================================

func (s *Server) handleOccupancy(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	track, err1 := strconv.Atoi(q.Get("track"))
	start, err2 := strconv.ParseInt(q.Get("start"), 10, 64)
	end, err3 := strconv.ParseInt(q.Get("end"), 10, 64)
	if err := stderrors.Join(err1, err2, err3); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "track, start and end must be integers"))
		return
	}
	span := timeline.SpanBetween(timeline.Frame(start), timeline.Frame(end))
	if !span.Valid() {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "empty range [%d,%d)", start, end))
		return
	}
	items := []placementJSON{}
	_ = sess.Do(func(_ *scene.Scene, e *arrange.Engine) error {
		for _, it := range e.QueryOccupancy(track, span) {
			items = append(items, newPlacement(it))
		}
		return nil
	})
	writeJSON(w, http.StatusOK, map[string]any{"track": track, "items": items})
}

type snapJSON struct {
	Frame   timeline.Frame `json:"frame"`
	Snapped timeline.Frame `json:"snapped"`
	Source  string         `json:"source,omitempty"`
}

func (s *Server) handleSnap(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	f, err := strconv.ParseInt(r.URL.Query().Get("frame"), 10, 64)
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "frame must be an integer"))
		return
	}
	out := snapJSON{Frame: timeline.Frame(f), Snapped: timeline.Frame(f)}
	_ = sess.Do(func(_ *scene.Scene, e *arrange.Engine) error {
		if p, ok := e.SnapIndex().Nearest(out.Frame, e.Config().SnapTolerance()); ok {
			out.Snapped, out.Source = p.Time, p.Source.String()
		}
		return nil
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	opts := groups.Options{Free: r.URL.Query().Has("free"), Detailed: r.URL.Query().Has("detailed")}
	var dot string
	_ = sess.Do(func(sc *scene.Scene, _ *arrange.Engine) error {
		dot = groups.ToDOT(sc.Timeline, opts)
		return nil
	})

	switch format := r.URL.Query().Get("format"); format {
	case "", "dot":
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(dot))
	case "svg":
		svg, err := groups.RenderSVG(r.Context(), dot)
		if err != nil {
			s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "render groups"))
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.WriteHeader(http.StatusOK)
		w.Write(svg)
	default:
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "unsupported format %q", format))
	}
}
