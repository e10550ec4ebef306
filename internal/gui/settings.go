package gui

import (
	"fmt"
	"math"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"codeberg.org/snonux/quicktrans/internal/config"
	"codeberg.org/snonux/quicktrans/internal/i18n"
	"codeberg.org/snonux/quicktrans/internal/models"
	"codeberg.org/snonux/quicktrans/internal/translation"
)

// showSettings opens the settings panel on a fresh draft. The draft is
// saved when the panel closes, and only if something was edited.
func (a *Application) showSettings() {
	draft := a.configs.Open()

	endpointLabel := widget.NewLabel(translation.ResolveEndpoint(draft.APIURL))
	endpointLabel.Truncation = fyne.TextTruncateEllipsis

	urlEntry := widget.NewEntry()
	urlEntry.SetText(draft.APIURL)
	urlEntry.OnChanged = func(s string) {
		draft.Update(func(c *config.Config) { c.APIURL = strings.TrimSpace(s) })
		endpointLabel.SetText(translation.ResolveEndpoint(draft.APIURL))
	}
	resetButton := widget.NewButtonWithIcon("", theme.HistoryIcon(), func() {
		draft.ResetURL()
		urlEntry.SetText(config.DefaultAPIURL)
	})

	keyEntry := widget.NewPasswordEntry()
	keyEntry.SetText(draft.APIKey)
	if draft.APIKey == "" && a.apiKey != "" {
		keyEntry.SetPlaceHolder(i18n.T("Using OPENAI_API_KEY from the environment"))
	}
	keyEntry.OnChanged = func(s string) {
		draft.Update(func(c *config.Config) { c.APIKey = strings.TrimSpace(s) })
	}

	modelEntry := widget.NewSelectEntry(nil)
	modelEntry.SetText(draft.Model)
	modelEntry.OnChanged = func(s string) {
		draft.Update(func(c *config.Config) { c.Model = strings.TrimSpace(s) })
	}
	fetchButton := widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), func() {
		a.fetchModels(draft.Config, modelEntry)
	})

	tempLabel := widget.NewLabel(formatTemperature(draft.Temperature))
	tempSlider := widget.NewSlider(config.MinTemperature, config.MaxTemperature)
	tempSlider.Step = 0.1
	tempSlider.Value = draft.Temperature
	tempSlider.OnChanged = func(v float64) {
		v = math.Round(v*10) / 10
		tempLabel.SetText(formatTemperature(v))
		draft.Update(func(c *config.Config) { c.Temperature = v })
	}

	streamCheck := widget.NewCheck(i18n.T("Stream the response as it arrives"), nil)
	streamCheck.SetChecked(draft.Stream)
	streamCheck.OnChanged = func(b bool) {
		draft.Update(func(c *config.Config) { c.Stream = b })
	}

	form := widget.NewForm(
		widget.NewFormItem(i18n.T("API URL"), container.NewBorder(nil, nil, nil, resetButton, urlEntry)),
		widget.NewFormItem(i18n.T("Endpoint"), endpointLabel),
		widget.NewFormItem(i18n.T("API key"), keyEntry),
		widget.NewFormItem(i18n.T("Model"), container.NewBorder(nil, nil, nil, fetchButton, modelEntry)),
		widget.NewFormItem(i18n.T("Temperature"), container.NewBorder(nil, nil, nil, tempLabel, tempSlider)),
		widget.NewFormItem("", streamCheck),
	)

	d := dialog.NewCustom(i18n.T("Settings"), i18n.T("Close"), form, a.window)
	d.SetOnClosed(func() {
		a.closeSettings(draft)
	})
	d.Resize(fyne.NewSize(560, 380))
	d.Show()
}

func (a *Application) closeSettings(draft *config.Draft) {
	cfg, saved, err := a.configs.Close(draft)
	if err != nil {
		a.logger.Printf("Failed to save settings: %v", err)
		dialog.ShowError(err, a.window)
		return
	}
	if saved {
		a.logger.Printf("Settings saved: endpoint=%s model=%s temperature=%.1f stream=%t",
			translation.ResolveEndpoint(cfg.APIURL), cfg.Model, cfg.Temperature, cfg.Stream)
		a.updateStatus(i18n.T("Settings updated"))
	}
}

// fetchModels fills the model dropdown from the endpoint's model list
func (a *Application) fetchModels(cfg config.Config, modelEntry *widget.SelectEntry) {
	if cfg.APIKey == "" {
		cfg.APIKey = a.apiKey
	}
	a.updateStatus(i18n.T("Fetching models..."))

	go func() {
		list, err := models.NewLister(cfg).ChatModels(a.ctx)
		fyne.Do(func() {
			if err != nil {
				a.logger.Printf("Failed to list models: %v", err)
				a.updateStatus(fmt.Sprintf("%s: %v", i18n.T("Error"), err))
				return
			}
			modelEntry.SetOptions(list)
			a.updateStatus(i18n.N("Found %d chat model", "Found %d chat models", len(list)))
		})
	}()
}

func formatTemperature(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
