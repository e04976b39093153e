package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"storyboard-server/internal/model"
)

// ImageRequest - запрос генерации изображения кадра. StyleImage и
// CharacterImages - референсы, передаются модели inline с подписями.
type ImageRequest struct {
	Prompt          string
	HD              bool
	Model           string
	StyleImage      *model.ImageData
	CharacterImages []model.NamedImage
}

const (
	styleCaption     = "Референс стиля: выдержи изображение в стиле этого примера."
	characterCaption = "Референс персонажа %s: сохрани внешность с этого изображения."
)

// GenerateImage генерирует изображение кадра и возвращает его data URL.
// Флаг HD переключает на старшую модель. Остановка фильтрами провайдера
// превращается в ошибку категории content_policy, ответ без изображения -
// в ошибку категории empty.
func (t *Tasks) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	var out string
	err := t.caller.Do(ctx, labelImage, func(ctx context.Context, client *genai.Client, s model.Settings) error {
		modelID := s.ImageModelOrDefault()
		if req.Model != "" {
			modelID = req.Model
		}
		if req.HD {
			modelID = hdImageModel
		}

		parts := make([]*genai.Part, 0, 2+2*len(req.CharacterImages)+1)
		if req.StyleImage != nil {
			parts = append(parts,
				genai.NewPartFromText(styleCaption),
				genai.NewPartFromBytes(req.StyleImage.Data, req.StyleImage.MIMEType),
			)
		}
		for _, ref := range req.CharacterImages {
			parts = append(parts,
				genai.NewPartFromText(fmt.Sprintf(characterCaption, ref.Name)),
				genai.NewPartFromBytes(ref.Image.Data, ref.Image.MIMEType),
			)
		}
		parts = append(parts, genai.NewPartFromText(req.Prompt))

		contents := []*genai.Content{
			genai.NewContentFromParts(parts, genai.RoleUser),
		}
		cfg := &genai.GenerateContentConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		}

		resp, err := client.Models.GenerateContent(ctx, modelID, contents, cfg)
		if err != nil {
			return err
		}

		dataURL, err := imageFromResponse(resp)
		if err != nil {
			return err
		}
		out = dataURL
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// imageFromResponse выбирает из ответа первую inline-картинку и кодирует её
// в data URL. Ответ без картинки с ненормальной причиной остановки - отказ
// фильтров, без причины - пустой результат.
func imageFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &Error{Kind: KindEmpty, Message: displayMessage(KindEmpty)}
	}

	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			return model.EncodeDataURL(part.InlineData.MIMEType, part.InlineData.Data), nil
		}
	}

	reason := resp.Candidates[0].FinishReason
	if reason != "" && reason != genai.FinishReasonStop {
		return "", &Error{
			Kind:    KindContentPolicy,
			Message: fmt.Sprintf("%s (%s)", displayMessage(KindContentPolicy), reason),
		}
	}
	return "", &Error{Kind: KindEmpty, Message: displayMessage(KindEmpty)}
}
