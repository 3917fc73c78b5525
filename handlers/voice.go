package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	speechpb "google.golang.org/genproto/googleapis/cloud/speech/v1"

	"denticare/config"
	ai "denticare/services/intelligence"
)

const (
	maxAudioFileSize = 5 * 1024 * 1024 // 5MB
	allowedExtension = ".wav"
)

// VoiceHandler transcribes an uploaded audio utterance and feeds the
// transcript through the same chat pipeline as typed messages.
type VoiceHandler struct {
	Chat *ChatHandler
}

func NewVoiceHandler(chat *ChatHandler) *VoiceHandler {
	return &VoiceHandler{Chat: chat}
}

// convertAudio normalizes arbitrary WAV input to 16kHz mono PCM, which is
// what the recognition config below declares.
func convertAudio(inputPath, outputPath string) error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found in system PATH: %v", err)
	}

	cmd := exec.Command("ffmpeg",
		"-y",
		"-i", inputPath,
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", "16000",
		outputPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg conversion failed: %s", stderr.String())
	}
	return nil
}

// HandleVoice accepts a multipart form with an "audio" WAV file plus optional
// "session_id" and "language" fields.
func (h *VoiceHandler) HandleVoice(c *gin.Context) {
	language := c.DefaultPostForm("language", "en-US")
	sessionID := c.PostForm("session_id")

	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "audio file is required",
			"details": err.Error(),
		})
		return
	}
	defer file.Close()

	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != allowedExtension {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid file type",
			"details": fmt.Sprintf("expected %s, got %s", allowedExtension, ext),
		})
		return
	}

	tempInput, err := os.CreateTemp("", "audio-*.wav")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create temp file", "details": err.Error()})
		return
	}
	defer os.Remove(tempInput.Name())
	defer tempInput.Close()

	if _, err := io.Copy(tempInput, io.LimitReader(file, maxAudioFileSize)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save audio file", "details": err.Error()})
		return
	}

	tempOutput, err := os.CreateTemp("", "converted-*.wav")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create output temp file", "details": err.Error()})
		return
	}
	defer os.Remove(tempOutput.Name())
	defer tempOutput.Close()

	if err := convertAudio(tempInput.Name(), tempOutput.Name()); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio conversion failed", "details": err.Error()})
		return
	}

	audioData, err := os.ReadFile(tempOutput.Name())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read converted audio", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()
	client, err := speech.NewClient(ctx, option.WithCredentialsFile(config.AppConfig.GoogleServiceAccountFile))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to initialize speech client", "details": err.Error()})
		return
	}
	defer client.Close()

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   16000,
			LanguageCode:      language,
			AudioChannelCount: 1,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{
				Content: audioData,
			},
		},
	}

	resp, err := client.Recognize(ctx, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "speech recognition failed", "details": err.Error()})
		return
	}

	var transcript strings.Builder
	for _, result := range resp.Results {
		for _, alt := range result.Alternatives {
			transcript.WriteString(alt.Transcript + " ")
		}
	}
	text := strings.TrimSpace(transcript.String())
	if text == "" {
		c.JSON(http.StatusOK, gin.H{"transcription": "", "reply": "I couldn't hear that, could you say it again?"})
		return
	}

	// hand the transcript to the chat pipeline in-process
	c.Set("transcription", text)
	h.handleTranscript(c, sessionID, text)
}

func (h *VoiceHandler) handleTranscript(c *gin.Context, sessionID, text string) {
	logger := getLogger(c)

	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	extracted, err := h.Chat.AI.ExtractIntent(c.Request.Context(), text, nil)
	if err != nil {
		logger.Error("intent extraction failed", zap.Error(err))
		if h.Chat.Recorder != nil {
			h.Chat.Recorder.Record(c.Request.Context(), "ai.extract", sessionID, err, nil)
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not understand the message right now"})
		return
	}
	if extracted.Confidence < h.Chat.ConfidenceFloor {
		extracted.Intent = ai.IntentUnknown
		extracted.Fields = nil
	}

	result, err := h.Chat.dispatch(c, sessionID, extracted)
	if err != nil {
		logger.Error("voice turn failed", zap.String("sessionId", sessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scheduling is temporarily unavailable"})
		return
	}

	reply, err := h.Chat.AI.GenerateReply(c.Request.Context(), result)
	if err != nil {
		reply = ai.TemplateReply(result)
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":    sessionID,
		"transcription": text,
		"reply":         reply,
		"result":        result,
	})
}
