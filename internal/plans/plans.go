// Package plans содержит статический каталог тарифных планов: цена,
// длительность оплаченного окна и список доступных страниц. Каталог
// неизменяем во время работы, правки вносятся только деплоем.
package plans

import "time"

// Plan описывает тарифный план подписки.
type Plan struct {
	Name         string        // Человекочитаемое название
	Amount       int64         // Цена в отображаемых единицах (найра)
	Duration     time.Duration // Длительность оплаченного окна
	AllowedPages []string      // Страницы, доступные на этом плане
}

// catalog — единственный источник тарифов. basic намеренно короткий (1 час),
// он используется как дешёвый пробный доступ.
var catalog = map[string]Plan{
	"basic": {
		Name:         "Basic Plan",
		Amount:       50,
		Duration:     time.Hour,
		AllowedPages: []string{"std.html", "p_c.html"},
	},
	"standard": {
		Name:         "Standard Plan",
		Amount:       450,
		Duration:     7 * 24 * time.Hour,
		AllowedPages: []string{"std.html", "p_c.html", "therapist_alice.html"},
	},
	"premium": {
		Name:         "Premium Plan",
		Amount:       850,
		Duration:     14 * 24 * time.Hour,
		AllowedPages: []string{"std.html", "p_c.html", "therapist_alice.html", "doc_John.html", "ai_doc_dashboard.html", "health_reports.html"},
	},
	"pro": {
		Name:         "Pro Plan",
		Amount:       1600,
		Duration:     30 * 24 * time.Hour,
		AllowedPages: []string{"std.html", "p_c.html", "therapist_alice.html", "doc_John.html", "ai_doc_dashboard.html", "health_reports.html", "emergency_support.html"},
	},
}

// Get возвращает план по идентификатору.
func Get(name string) (Plan, bool) {
	p, ok := catalog[name]
	return p, ok
}

// Exists сообщает, есть ли план в каталоге.
func Exists(name string) bool {
	_, ok := catalog[name]
	return ok
}

// AmountMinorUnits возвращает цену плана в минорных единицах провайдера (кобо).
func (p Plan) AmountMinorUnits() int64 {
	return p.Amount * 100
}

// Window вычисляет окно подписки [start, end) для плана от момента now.
// Явная чистая функция вместо скрытых хуков на сохранении записи.
func Window(p Plan, now time.Time) (start, end time.Time) {
	return now, now.Add(p.Duration)
}

// WindowWithDuration — то же, что Window, но с переопределённой длительностью.
// Используется только административным продлением.
func WindowWithDuration(now time.Time, d time.Duration) (start, end time.Time) {
	return now, now.Add(d)
}

// AllowsPage сообщает, входит ли страница в список доступных для плана.
func (p Plan) AllowsPage(page string) bool {
	for _, allowed := range p.AllowedPages {
		if allowed == page {
			return true
		}
	}
	return false
}
