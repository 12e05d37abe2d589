package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/satriahrh/voicechat/server/domain"
	"github.com/satriahrh/voicechat/server/domain/repositories"
)

const (
	defaultGoogleTranslateURL = "https://translate.google.com"
	gttsMaxChars              = 100
	gttsUserAgent             = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// GoogleTranslateConfig configures the Google Translate speech endpoint
type GoogleTranslateConfig struct {
	BaseURL  string
	TLD      string
	Language string
}

// GoogleTranslateTTS synthesizes MP3 through the keyless endpoint used by the
// Google Translate web page. Text is sent in chunks of at most 100
// characters whose MP3 frames are concatenated.
type GoogleTranslateTTS struct {
	baseURL    string
	language   string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ repositories.TextToSpeech = (*GoogleTranslateTTS)(nil)

// NewGoogleTranslateTTS creates the adapter. A TLD other than "com" selects
// a regional host such as translate.google.co.uk.
func NewGoogleTranslateTTS(config GoogleTranslateConfig, logger *zap.Logger) *GoogleTranslateTTS {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultGoogleTranslateURL
		if config.TLD != "" && config.TLD != "com" {
			baseURL = "https://translate.google." + config.TLD
		}
	}
	language := config.Language
	if language == "" {
		language = "en"
	}
	return &GoogleTranslateTTS{
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   language,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// SynthesizeAudio implements repositories.TextToSpeech
func (g *GoogleTranslateTTS) SynthesizeAudio(ctx context.Context, text string, w io.Writer) error {
	chunks := splitText(text, gttsMaxChars)
	if len(chunks) == 0 {
		return domain.Errorf(domain.KindSynthesisFailed, "google translate tts", "no text to speak")
	}

	g.logger.Debug("Synthesizing with Google Translate",
		zap.String("language", g.language),
		zap.Int("chunks", len(chunks)))

	for i, chunk := range chunks {
		if err := g.fetchChunk(ctx, chunk, i, len(chunks), w); err != nil {
			return domain.E(domain.KindSynthesisFailed, "google translate tts", err)
		}
	}
	return nil
}

func (g *GoogleTranslateTTS) fetchChunk(ctx context.Context, chunk string, idx, total int, w io.Writer) error {
	query := url.Values{}
	query.Set("ie", "UTF-8")
	query.Set("q", chunk)
	query.Set("tl", g.language)
	query.Set("client", "tw-ob")
	query.Set("ttsspeed", "1")
	query.Set("total", strconv.Itoa(total))
	query.Set("idx", strconv.Itoa(idx))
	query.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/translate_tts?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("User-Agent", gttsUserAgent)
	req.Header.Set("Referer", g.baseURL+"/")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%d (%s) from TTS API: %s",
			resp.StatusCode, http.StatusText(resp.StatusCode), strings.TrimSpace(string(body)))
	}

	_, err = io.Copy(w, resp.Body)
	return err
}

// splitText packs whitespace separated words into chunks of at most limit
// runes. Words longer than limit are cut.
func splitText(text string, limit int) []string {
	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)
	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, word := range strings.Fields(text) {
		for utf8.RuneCountInString(word) > limit {
			flush()
			runes := []rune(word)
			chunks = append(chunks, string(runes[:limit]))
			word = string(runes[limit:])
		}
		n := utf8.RuneCountInString(word)
		if curLen > 0 && curLen+1+n > limit {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(word)
		curLen += n
	}
	flush()
	return chunks
}
