package browser

import (
	"time"

	"github.com/playwright-community/playwright-go"
)

// Кнопки закрытия окна входа и баннера cookie на гостевой странице LinkedIn.
var popupSelectors = []string{
	"button.modal__dismiss",
	"button.contextual-sign-in-modal__modal-dismiss",
	"[data-tracking-control-name*='dismiss']",
	"button[action-type='DENY']",
	"[role='dialog'] button[aria-label*='dismiss' i]",
	"[role='dialog'] button[aria-label*='close' i]",
	"[aria-label='Close']",
}

// Кнопка раскрытия полного описания вакансии.
const showMoreSelector = "button.show-more-less-html__button--more"

func (b *PlaywrightBrowser) closePopups(page playwright.Page) {
	for _, selector := range popupSelectors {
		elements, err := page.QuerySelectorAll(selector)
		if err != nil {
			continue
		}

		for _, element := range elements {
			isVisible, err := element.IsVisible()
			if err != nil || !isVisible {
				continue
			}

			if err := element.Click(); err == nil {
				time.Sleep(b.cfg.PopupWait)
			}
		}
	}

	if more, err := page.QuerySelector(showMoreSelector); err == nil && more != nil {
		if visible, _ := more.IsVisible(); visible {
			_ = more.Click()
		}
	}
}
