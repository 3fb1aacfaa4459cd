package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"stylesnap/internal/catalog"
	"stylesnap/internal/domain"
	"stylesnap/internal/middleware"
	"stylesnap/internal/providers/replicate"
)

const (
	// negativePrompt is the fixed guardrail sent with every generation.
	negativePrompt = "ugly, blurry, low quality, distorted, deformed"
	guidanceScale  = 7.5

	defaultInferenceSteps = 30
	hqInferenceSteps      = 50

	// promptStrength controls how much of the source image survives an
	// image-to-image run. 0.8 transforms heavily while keeping composition.
	promptStrength = 0.8

	maxUploadBytes = 10 << 20
)

type textGenerateRequest struct {
	UserID string `json:"userId"`
	Prompt string `json:"prompt"`
	Style  string `json:"style"`
	Size   string `json:"size"`
}

type generateResponse struct {
	Success          bool   `json:"success"`
	ImageURL         string `json:"imageUrl"`
	CreditsUsed      int    `json:"creditsUsed"`
	RemainingCredits int    `json:"remainingCredits"`
}

// GenerateText handles text-to-image generation.
func (a *App) GenerateText(w http.ResponseWriter, r *http.Request) {
	var req textGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" || strings.TrimSpace(req.Prompt) == "" || req.Style == "" || req.Size == "" {
		a.error(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	a.generate(w, r, generation{
		userID: req.UserID,
		prompt: strings.TrimSpace(req.Prompt),
		style:  req.Style,
		size:   req.Size,
	})
}

// GenerateImage handles image-to-image generation. The uploaded source image
// is stored only for the duration of the request and removed on every exit
// path once it has been handed to the provider.
func (a *App) GenerateImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	userID := r.FormValue("userId")
	style := r.FormValue("style")
	size := r.FormValue("size")
	prompt := strings.TrimSpace(r.FormValue("prompt"))

	file, header, err := r.FormFile("image")
	if err != nil {
		a.error(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	defer file.Close()

	if userID == "" || style == "" || size == "" {
		a.error(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		a.error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(data) == 0 || len(data) > maxUploadBytes {
		a.error(w, http.StatusBadRequest, "Image must be between 1 byte and 10 MB")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	ref, err := a.Uploads.Save(r.Context(), header.Filename, data, contentType)
	if err != nil {
		a.providerError(w, r, err)
		return
	}
	// The upload is single-use. WithoutCancel keeps the cleanup working even
	// when the client has already disconnected.
	defer func() {
		if err := a.Uploads.Remove(context.WithoutCancel(r.Context()), ref); err != nil {
			a.Logger.Error().Err(err).Str("ref", ref).Msg("failed to remove upload")
		}
	}()

	imageRef, ok := a.Uploads.PublicURL(ref)
	if !ok {
		imageRef = fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
	}

	a.generate(w, r, generation{
		userID:   userID,
		prompt:   prompt,
		style:    style,
		size:     size,
		imageRef: imageRef,
	})
}

type generation struct {
	userID   string
	prompt   string // empty only in image mode
	style    string
	size     string
	imageRef string // URL or data URI; set only in image mode
}

// generate is the shared debit-generate-respond path. The debit happens
// before the provider call and is refunded when the provider fails, so a
// failed generation never costs credits.
func (a *App) generate(w http.ResponseWriter, r *http.Request, gen generation) {
	style := catalog.ResolveStyle(gen.style)
	size := catalog.ResolveSize(gen.size)

	remaining, err := a.Ledger.TryDebit(r.Context(), gen.userID, size.Credits)
	if err != nil {
		if ice, ok := domain.AsInsufficientCredits(err); ok {
			a.json(w, http.StatusPaymentRequired, map[string]any{
				"error":     "Insufficient credits",
				"required":  ice.Required,
				"available": ice.Available,
			})
			return
		}
		a.providerError(w, r, err)
		return
	}

	prompt := gen.prompt
	if prompt == "" {
		prompt = fmt.Sprintf("transform this image to %s style, maintain original composition and subject", style.Label())
	}
	prompt = prompt + ", " + style.Suffix

	steps := defaultInferenceSteps
	if size.HighQuality {
		steps = hqInferenceSteps
	}
	input := replicate.GenerationInput{
		Prompt:            prompt,
		Width:             size.Width,
		Height:            size.Height,
		NumOutputs:        1,
		NegativePrompt:    negativePrompt,
		NumInferenceSteps: steps,
		GuidanceScale:     guidanceScale,
	}
	if gen.imageRef != "" {
		input.Image = gen.imageRef
		input.PromptStrength = promptStrength
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.generateTimeout())
	defer cancel()

	outputs, err := a.Images.Generate(ctx, input)
	if err == nil && len(outputs) == 0 {
		err = errors.New("generation returned no output")
	}
	if err != nil {
		a.refundDebit(r, gen.userID, size.Credits)
		a.providerError(w, r, err)
		return
	}

	a.json(w, http.StatusOK, generateResponse{
		Success:          true,
		ImageURL:         outputs[0],
		CreditsUsed:      size.Credits,
		RemainingCredits: remaining,
	})
}

// refundDebit compensates a debit whose generation never completed.
func (a *App) refundDebit(r *http.Request, userID string, amount int) {
	ctx := context.WithoutCancel(r.Context())
	if _, err := a.Ledger.Credit(ctx, userID, amount); err != nil {
		a.Logger.Error().
			Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("user_id", userID).
			Int("credits", amount).
			Msg("refund after provider failure did not land")
	}
}
