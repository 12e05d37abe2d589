package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/voicechat/server/domain"
	"github.com/satriahrh/voicechat/server/internal/scratch"
	"github.com/satriahrh/voicechat/server/usecase"
)

const (
	rootMessage = "Voice Chat Bot API is running."
	serviceName = "voicechat-server"

	speechErrorFormat    = "Error generating speech: %s"
	voiceChatErrorFormat = "Error processing voice chat: %s"

	audioField = "audio"
	textField  = "text"

	headerTranscript   = "X-Transcript"
	headerResponseText = "X-Response-Text"

	unintelligibleKind = "Unintelligible"
)

// Handler serves the voice chat endpoints
type Handler struct {
	scratch       *scratch.Manager
	transcription *usecase.TranscriptionService
	chat          *usecase.ChatService
	synthesis     *usecase.SynthesisService
	voiceChat     *usecase.VoiceChatService
	logger        *zap.Logger
}

// NewHandler creates a new handler
func NewHandler(
	scratchManager *scratch.Manager,
	transcription *usecase.TranscriptionService,
	chat *usecase.ChatService,
	synthesis *usecase.SynthesisService,
	voiceChat *usecase.VoiceChatService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		scratch:       scratchManager,
		transcription: transcription,
		chat:          chat,
		synthesis:     synthesis,
		voiceChat:     voiceChat,
		logger:        logger,
	}
}

func (h *Handler) root(c echo.Context) error {
	return c.JSON(http.StatusOK, MessageResponse{Message: rootMessage})
}

func (h *Handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Service: serviceName})
}

// speechToText answers with a transcript, or with a sentinel text in its
// place; it never fails with a non-200 status once an upload is present
func (h *Handler) speechToText(c echo.Context) error {
	fileHeader, err := c.FormFile(audioField)
	if err != nil {
		return requiredField(c, audioField)
	}

	scope, err := h.scratch.Acquire()
	if err != nil {
		return c.JSON(http.StatusOK, transcriptionFailure(domain.E(domain.KindLocalIO, "acquire scratch", err)))
	}
	defer scope.Release()

	file, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusOK, transcriptionFailure(domain.E(domain.KindInputUnreadable, "open upload", err)))
	}
	defer file.Close()

	text, err := h.transcription.Transcribe(c.Request().Context(), scope, domain.AudioUpload{
		Filename: fileHeader.Filename,
		Content:  file,
	})
	if err != nil {
		h.logger.Warn("Transcription failed", zap.String("scope", scope.ID()), zap.Error(err))
		return c.JSON(http.StatusOK, transcriptionFailure(err))
	}
	return c.JSON(http.StatusOK, TranscriptionResponse{Text: text})
}

func (h *Handler) chatCompletion(c echo.Context) error {
	text := c.FormValue(textField)
	if text == "" {
		return requiredField(c, textField)
	}

	response, err := h.chat.Reply(c.Request().Context(), text)
	if err != nil {
		return c.JSON(http.StatusOK, ChatResponse{
			Response:  usecase.ChatFallback,
			ErrorKind: errorKind(err),
		})
	}
	return c.JSON(http.StatusOK, ChatResponse{Response: response})
}

// textToSpeechForm treats an empty form field as missing
func (h *Handler) textToSpeechForm(c echo.Context) error {
	text := c.FormValue(textField)
	if text == "" {
		return requiredField(c, textField)
	}
	return h.textToSpeech(c, text)
}

// textToSpeechQuery only requires the parameter to be present; empty text is
// left to the synthesizer to refuse
func (h *Handler) textToSpeechQuery(c echo.Context) error {
	if !c.QueryParams().Has(textField) {
		return requiredField(c, textField)
	}
	return h.textToSpeech(c, c.QueryParam(textField))
}

func (h *Handler) textToSpeech(c echo.Context, text string) error {
	scope, err := h.scratch.Acquire()
	if err != nil {
		return speechFailure(c, domain.E(domain.KindLocalIO, "acquire scratch", err))
	}
	defer scope.Release()

	path, err := h.synthesis.SynthesizeToFile(c.Request().Context(), scope, text)
	if err != nil {
		h.logger.Error("Speech synthesis failed", zap.String("scope", scope.ID()), zap.Error(err))
		return speechFailure(c, err)
	}

	f, err := openAudio(path)
	if err != nil {
		return speechFailure(c, err)
	}
	defer f.Close()
	return streamAudio(c, f)
}

func (h *Handler) voiceChatRound(c echo.Context) error {
	fileHeader, err := c.FormFile(audioField)
	if err != nil {
		return requiredField(c, audioField)
	}

	scope, err := h.scratch.Acquire()
	if err != nil {
		return voiceChatFailure(c, &usecase.PipelineError{
			Stage: usecase.PipelineTranscription,
			Err:   domain.E(domain.KindLocalIO, "acquire scratch", err),
		})
	}
	defer scope.Release()

	file, err := fileHeader.Open()
	if err != nil {
		return voiceChatFailure(c, &usecase.PipelineError{
			Stage: usecase.PipelineTranscription,
			Err:   domain.E(domain.KindInputUnreadable, "open upload", err),
		})
	}
	defer file.Close()

	result, err := h.voiceChat.Run(c.Request().Context(), scope, domain.AudioUpload{
		Filename: fileHeader.Filename,
		Content:  file,
	})
	if err != nil {
		h.logger.Error("Voice chat failed", zap.String("scope", scope.ID()), zap.Error(err))
		return voiceChatFailure(c, err)
	}

	f, err := openAudio(result.AudioPath)
	if err != nil {
		h.logger.Error("Voice chat audio missing", zap.String("scope", scope.ID()), zap.Error(err))
		return voiceChatFailure(c, &usecase.PipelineError{
			Stage:      usecase.PipelineSynthesis,
			Transcript: result.Transcript,
			Response:   result.Response,
			Err:        err,
		})
	}
	defer f.Close()

	header := c.Response().Header()
	header.Set(headerTranscript, url.QueryEscape(result.Transcript))
	header.Set(headerResponseText, url.QueryEscape(result.Response))
	return streamAudio(c, f)
}

func openAudio(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.E(domain.KindLocalIO, "open audio file", err)
	}
	return f, nil
}

// streamAudio sends an MP3 from the scratch scope as an attachment. The
// caller closes f and releases the scope once this returns.
func streamAudio(c echo.Context, f *os.File) error {
	header := c.Response().Header()
	header.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", usecase.ResponseAudioName))
	if info, err := f.Stat(); err == nil {
		header.Set(echo.HeaderContentLength, strconv.FormatInt(info.Size(), 10))
	}
	return c.Stream(http.StatusOK, "audio/mpeg", f)
}

// errorKind names the failure class reported in error_kind fields
func errorKind(err error) string {
	if errors.Is(err, domain.ErrUnintelligible) {
		return unintelligibleKind
	}
	return domain.KindOf(err).String()
}

func requiredField(c echo.Context, field string) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: field + " is required"})
}

func transcriptionFailure(err error) TranscriptionResponse {
	return TranscriptionResponse{
		Text:      usecase.SentinelText(err),
		ErrorKind: errorKind(err),
	}
}

func speechFailure(c echo.Context, err error) error {
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:     fmt.Sprintf(speechErrorFormat, domain.Detail(err)),
		ErrorKind: errorKind(err),
	})
}

func voiceChatFailure(c echo.Context, err error) error {
	resp := VoiceChatErrorResponse{
		Error:     fmt.Sprintf(voiceChatErrorFormat, domain.Detail(err)),
		ErrorKind: errorKind(err),
	}
	var perr *usecase.PipelineError
	if errors.As(err, &perr) {
		resp.Error = fmt.Sprintf(voiceChatErrorFormat, domain.Detail(perr.Err))
		resp.Stage = perr.Stage
		resp.Transcript = perr.Transcript
		resp.Response = perr.Response
	}
	return c.JSON(http.StatusInternalServerError, resp)
}
