package oracle

import (
	"bytes"
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/nguyentantai21042004/meeting-flow/internal/config"
)

// OpenAI implements Embedder and Transcriber using the OpenAI API. It can be
// pointed at any OpenAI-compatible provider via base_url.
type OpenAI struct {
	client             *openai.Client
	embeddingModel     string
	dim                int
	transcriptionModel string
}

var (
	_ Embedder    = (*OpenAI)(nil)
	_ Transcriber = (*OpenAI)(nil)
)

// NewOpenAI creates an OpenAI oracle client from config.
func NewOpenAI(cfg config.OpenAIConfig) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	return &OpenAI{
		client:             &client,
		embeddingModel:     cfg.EmbeddingModel,
		dim:                cfg.EmbeddingDimension,
		transcriptionModel: cfg.TranscriptionModel,
	}
}

// Embed returns the embedding vector for a single text.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}

	params := openai.EmbeddingNewParams{
		Model:          o.embeddingModel,
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{text}},
		Dimensions:     openai.Int(int64(o.dim)),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	}

	resp, err := o.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embed: empty response")
	}

	return float64sToFloat32s(resp.Data[0].Embedding), nil
}

// Dimension returns the configured vector dimensionality.
func (o *OpenAI) Dimension() int {
	return o.dim
}

// Transcribe sends the audio bytes to the transcription endpoint.
func (o *OpenAI) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyInput
	}

	params := openai.AudioTranscriptionNewParams{
		Model: o.transcriptionModel,
		File:  openai.File(bytes.NewReader(audio), "audio.wav", "audio/wav"),
	}
	if language != "" {
		params.Language = openai.String(language)
	}

	resp, err := o.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}

	return resp.Text, nil
}

func float64sToFloat32s(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
