package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// Discord webhook shapes. Other services accepting the same schema work
// unchanged.

type webhookPayload struct {
	Username string         `json:"username"`
	Embeds   []webhookEmbed `json:"embeds"`
}

type webhookEmbed struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Image       *webhookImage `json:"image,omitempty"`
}

type webhookImage struct {
	URL string `json:"url"`
}

const webhookUsername = "printwatch"

// postWebhook delivers one event to a webhook URL. With a frame the request
// is multipart form data carrying payload_json plus the snapshot; without
// one it is a plain JSON POST.
func (d *Dispatcher) postWebhook(ctx context.Context, url string, ev Event) error {
	payload := webhookPayload{
		Username: webhookUsername,
		Embeds:   []webhookEmbed{{Title: ev.Subject, Description: ev.Body}},
	}

	var body bytes.Buffer
	var contentType string
	if ev.Frame != nil {
		payload.Embeds[0].Image = &webhookImage{URL: "attachment://snapshot.jpg"}
		mw := multipart.NewWriter(&body)
		pj, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if err := mw.WriteField("payload_json", string(pj)); err != nil {
			return err
		}
		fw, err := mw.CreateFormFile("files[0]", "snapshot.jpg")
		if err != nil {
			return err
		}
		if _, err := fw.Write(ev.Frame.Body); err != nil {
			return err
		}
		if err := mw.Close(); err != nil {
			return err
		}
		contentType = mw.FormDataContentType()
	} else {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return err
		}
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("webhook returned %s: %s", resp.Status, msg)
	}
	return nil
}
