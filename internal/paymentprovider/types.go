package paymentprovider

// InitializeRequest — запрос на инициализацию транзакции Paystack.
// Amount передаётся в минорных единицах (кобо).
type InitializeRequest struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// InitializeResponse — ответ Paystack на инициализацию транзакции.
type InitializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

// VerifyResponse — ответ Paystack на проверку транзакции по reference.
// Data.Status равен "success" только для успешно завершённой оплаты.
type VerifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status    string            `json:"status"`
		Reference string            `json:"reference"`
		Amount    int64             `json:"amount"`
		Metadata  map[string]string `json:"metadata"`
	} `json:"data"`
}
