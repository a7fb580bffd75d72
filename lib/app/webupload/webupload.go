// Package webupload exposes challenge, upload and listing over HTTP JSON API.
package webupload

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"docdrop/lib/app/uploader"
	"docdrop/lib/challenge"
	"docdrop/lib/challenge/chaltoken"
	. "docdrop/lib/logx"
	"docdrop/lib/utils/handler"
	ht "docdrop/lib/utils/hashtools"
	"docdrop/lib/utils/ratelimit"
)

const (
	DefaultMaxUploadBytes = 512 << 20
	// parts above this are spooled to disk by multipart reader
	maxMemory = 8 << 20
)

type Config struct {
	Uploader       *uploader.Uploader
	Tokens         *chaltoken.Issuer // nil: answers are checked against current second
	Location       *time.Location    // challenge seed timezone, nil means UTC
	AcceptAnyWord  bool
	MaxUploadBytes int64
	Limiter        *ratelimit.Limiter // upload limiter, nil disables
	Indent         string
	Logger         LoggerX
	Now            func() time.Time
}

type WebUpload struct {
	up      *uploader.Uploader
	tokens  *chaltoken.Issuer
	loc     *time.Location
	anyWord bool
	maxSize int64
	limiter *ratelimit.Limiter
	indent  string
	now     func() time.Time
	log     Logger
}

func New(cfg Config) (*WebUpload, error) {
	if cfg.Uploader == nil {
		return nil, errors.New("webupload: no uploader")
	}
	w := &WebUpload{
		up:      cfg.Uploader,
		tokens:  cfg.Tokens,
		loc:     cfg.Location,
		anyWord: cfg.AcceptAnyWord,
		maxSize: cfg.MaxUploadBytes,
		limiter: cfg.Limiter,
		indent:  cfg.Indent,
		now:     cfg.Now,
		log:     NewLogToX(cfg.Logger, "webupload"),
	}
	if w.loc == nil {
		w.loc = time.UTC
	}
	if w.maxSize <= 0 {
		w.maxSize = DefaultMaxUploadBytes
	}
	if w.now == nil {
		w.now = time.Now
	}
	return w, nil
}

// Handler returns API router.
func (w *WebUpload) Handler() http.Handler {
	return handler.NewSimplePath().
		Handle("/_api/challenge", false,
			handler.NewMethod().Handle("GET", http.HandlerFunc(w.serveChallenge))).
		Handle("/_api/upload", false,
			handler.NewMethod().Handle("POST", http.HandlerFunc(w.serveUpload))).
		Handle("/_api/files", false,
			handler.NewMethod().Handle("GET", http.HandlerFunc(w.serveFiles)))
}

type jsonErrorMsg struct {
	Code int    `json:"code,omitempty"`
	Msg  string `json:"msg,omitempty"`
}

type jsonError struct {
	Err jsonErrorMsg `json:"error"`
}

type challengeReply struct {
	Candidates []string `json:"candidates"`
	Token      string   `json:"token,omitempty"`
	Expires    int64    `json:"expires,omitempty"`
}

type uploadReply struct {
	Status      string          `json:"status"`
	Name        string          `json:"name,omitempty"`
	Fingerprint *ht.Fingerprint `json:"fingerprint,omitempty"`
	Size        int64           `json:"size,omitempty"`
	Error       *jsonErrorMsg   `json:"error,omitempty"`
}

type filesReply struct {
	Files []string `json:"files"`
}

func (w *WebUpload) reply(rw http.ResponseWriter, code int, v interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.Header().Set("X-Content-Type-Options", "nosniff")
	rw.Header().Set("Cache-Control", "no-store")
	if code != 0 {
		rw.WriteHeader(code)
	}
	e := json.NewEncoder(rw)
	e.SetEscapeHTML(false)
	e.SetIndent("", w.indent)
	if err := e.Encode(v); err != nil {
		w.log.LogPrintf(DEBUG, "reply encode: %v", err)
	}
}

func (w *WebUpload) returnError(rw http.ResponseWriter, err error, code int) {
	w.reply(rw, code, &jsonError{Err: jsonErrorMsg{Code: code, Msg: err.Error()}})
}

func (w *WebUpload) serveChallenge(rw http.ResponseWriter, r *http.Request) {
	now := w.now().In(w.loc)
	c := challenge.Generate(now)
	rep := challengeReply{Candidates: c.Candidates}
	if w.tokens != nil {
		tok, err := w.tokens.Issue(c.Bucket)
		if err != nil {
			w.log.LogPrintf(ERROR, "token issue: %v", err)
			w.returnError(rw, errors.New("internal error"), http.StatusInternalServerError)
			return
		}
		rep.Token = tok
		rep.Expires = c.Bucket.Add(w.tokens.TTL()).Unix()
	}
	w.reply(rw, 0, &rep)
}

// checkAnswer validates submitted answer; code is HTTP status on failure.
func (w *WebUpload) checkAnswer(answer, token string) (err error, code int) {
	now := w.now().In(w.loc)
	if answer == "" {
		return errors.New("no challenge answer"), http.StatusBadRequest
	}

	bucket := now
	maxAge := time.Duration(0)
	if w.tokens != nil && token != "" {
		b, e := w.tokens.Parse(token, now)
		if e != nil {
			return e, http.StatusUnauthorized
		}
		bucket = b.In(w.loc)
		maxAge = w.tokens.TTL()
	}
	if e := challenge.Verify(bucket, now, maxAge, answer, w.anyWord); e != nil {
		if errors.Is(e, challenge.ErrWrongAnswer) && !w.anyWord &&
			!challenge.Generate(bucket).Contains(answer) {

			// not a misclick on a decoy, value was never offered
			e = fmt.Errorf("%w: %q was not offered", e, answer)
		}
		return e, http.StatusUnauthorized
	}
	return nil, 0
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (w *WebUpload) serveUpload(rw http.ResponseWriter, r *http.Request) {
	if !w.limiter.Allow(clientKey(r)) {
		w.returnError(rw, errors.New("too many uploads, slow down"), http.StatusTooManyRequests)
		return
	}

	r.Body = http.MaxBytesReader(rw, r.Body, w.maxSize)
	err := r.ParseMultipartForm(maxMemory)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			w.returnError(rw, fmt.Errorf("upload exceeds %d bytes", w.maxSize), http.StatusRequestEntityTooLarge)
			return
		}
		w.returnError(rw, fmt.Errorf("bad multipart form: %v", err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	if err, code := w.checkAnswer(r.FormValue("answer"), r.FormValue("token")); err != nil {
		w.log.LogPrintf(INFO, "rejected upload from %s: %v", clientKey(r), err)
		w.returnError(rw, err, code)
		return
	}

	f, fh, err := r.FormFile("file")
	if err != nil {
		w.returnError(rw, fmt.Errorf("no file: %v", err), http.StatusBadRequest)
		return
	}
	defer f.Close()

	res, err := w.up.Accept(fh.Filename, f)
	if err != nil {
		w.log.LogPrintf(ERROR, "accept %q: %v", fh.Filename, err)
		w.returnError(rw, errors.New("failed to store upload"), http.StatusInternalServerError)
		return
	}

	rep := uploadReply{
		Status:      res.Status.String(),
		Name:        res.Name,
		Fingerprint: &res.Fingerprint,
		Size:        res.Size,
	}
	code := http.StatusCreated
	if res.Status == uploader.StatusDuplicate {
		code = http.StatusConflict
		rep.Error = &jsonErrorMsg{Code: code, Msg: "file already exists"}
	}
	w.reply(rw, code, &rep)
}

func (w *WebUpload) serveFiles(rw http.ResponseWriter, r *http.Request) {
	names, err := w.up.List()
	if err != nil {
		w.log.LogPrintf(ERROR, "list: %v", err)
		w.returnError(rw, errors.New("failed to list files"), http.StatusInternalServerError)
		return
	}
	w.reply(rw, 0, &filesReply{Files: names})
}
