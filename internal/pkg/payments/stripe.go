package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Pacote payments é o cliente do processador de pagamentos (Stripe).
// O processador é um colaborador externo opaco: este pacote só cria cobranças
// e recupera o estado delas, normalizando as duas formas de confirmação
// (Checkout Session e PaymentIntent) em um único shape (Charge).

// DefaultBaseURL é o endpoint da API REST do Stripe.
const DefaultBaseURL = "https://api.stripe.com"

// Status finais de sucesso do processador. Qualquer outro valor
// (processing, requires_payment_method, canceled, unpaid, ...) NÃO é sucesso.
const (
	StatusSucceeded = "succeeded" // PaymentIntent
	StatusPaid      = "paid"      // Checkout Session (payment_status)
)

// Sentinelas de erro do cliente. O service de checkout traduz:
// ErrUnavailable -> falha retryável (verificação indisponível);
// ErrInvalidReference -> falha terminal (referência desconhecida/malformada).
var (
	ErrUnavailable      = errors.New("processador de pagamento indisponível")
	ErrInvalidReference = errors.New("referência de pagamento inválida")
)

// ReferenceKind identifica o mecanismo de confirmação usado pela cobrança.
type ReferenceKind string

const (
	KindCheckoutSession ReferenceKind = "checkout_session"
	KindPaymentIntent   ReferenceKind = "payment_intent"
)

// Reference é a variante etiquetada de uma referência de confirmação.
type Reference struct {
	Kind ReferenceKind
	ID   string
}

// ParseReference classifica uma referência crua pelo prefixo do Stripe
// ("cs_..." para Checkout Session, "pi_..." para PaymentIntent).
func ParseReference(raw string) (Reference, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "cs_"):
		return Reference{Kind: KindCheckoutSession, ID: raw}, nil
	case strings.HasPrefix(raw, "pi_"):
		return Reference{Kind: KindPaymentIntent, ID: raw}, nil
	case raw == "":
		return Reference{}, fmt.Errorf("%w: referência vazia", ErrInvalidReference)
	default:
		return Reference{}, fmt.Errorf("%w: prefixo desconhecido em %q", ErrInvalidReference, raw)
	}
}

// ChargeMetadata é a metadata anexada à cobrança NO MOMENTO DA CRIAÇÃO.
// É a única fonte autoritativa de "quem comprou o quê" — nunca confiamos em
// campos enviados pelo cliente na confirmação.
type ChargeMetadata struct {
	UserID    string `json:"user_id"`
	CourseID  string `json:"course_id"`
	UserEmail string `json:"user_email"`
}

// Charge é a forma unificada de uma cobrança após a recuperação,
// independente do mecanismo de confirmação.
type Charge struct {
	ID       string
	Status   string
	Amount   int64 // Menor unidade da moeda (centavos de BRL)
	Currency string
	Metadata ChargeMetadata
}

// Succeeded informa se o processador reporta um sucesso FINAL.
// Estados ambíguos (processing, requires_action, ...) não contam.
func (c Charge) Succeeded() bool {
	return c.Status == StatusSucceeded || c.Status == StatusPaid
}

// CreateIntentRequest contém os dados para criar um PaymentIntent.
// Amount deve estar na menor unidade da moeda (100 = R$ 1,00).
type CreateIntentRequest struct {
	Amount      int64
	Currency    string
	Description string
	Metadata    ChargeMetadata
}

// Intent é a resposta da criação de um PaymentIntent; o ClientSecret vai
// para a UI montar o formulário de pagamento hospedado.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

// Client define o contrato que o service de checkout espera do processador.
type Client interface {
	CreatePaymentIntent(ctx context.Context, req CreateIntentRequest) (Intent, error)
	RetrieveCharge(ctx context.Context, ref Reference) (Charge, error)
}

// StripeClient é a implementação concreta de Client contra a API REST do Stripe.
type StripeClient struct {
	secretKey string
	baseURL   string
	http      *http.Client
}

// NewStripeClient cria um cliente com timeout próprio (a chamada é síncrona
// dentro de uma requisição de usuário; não pode pendurar o worker).
func NewStripeClient(secretKey, baseURL string, timeout time.Duration) *StripeClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &StripeClient{
		secretKey: secretKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: timeout},
	}
}

// CreatePaymentIntent cria a cobrança com a metadata de comprador/produto.
func (c *StripeClient) CreatePaymentIntent(ctx context.Context, req CreateIntentRequest) (Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("currency", req.Currency)
	form.Set("description", req.Description)
	// No original os métodos aceitos são cartão e Pix.
	form.Add("payment_method_types[]", "card")
	form.Add("payment_method_types[]", "pix")
	form.Set("metadata[user_id]", req.Metadata.UserID)
	form.Set("metadata[course_id]", req.Metadata.CourseID)
	form.Set("metadata[user_email]", req.Metadata.UserEmail)

	var intent Intent
	if err := c.do(ctx, http.MethodPost, "/v1/payment_intents", form, &intent); err != nil {
		return Intent{}, err
	}
	return intent, nil
}

// RetrieveCharge despacha para a chamada de recuperação adequada ao tipo de
// referência e unifica o resultado em Charge.
func (c *StripeClient) RetrieveCharge(ctx context.Context, ref Reference) (Charge, error) {
	switch ref.Kind {
	case KindPaymentIntent:
		var body struct {
			ID       string         `json:"id"`
			Status   string         `json:"status"`
			Amount   int64          `json:"amount"`
			Currency string         `json:"currency"`
			Metadata ChargeMetadata `json:"metadata"`
		}
		if err := c.do(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(ref.ID), nil, &body); err != nil {
			return Charge{}, err
		}
		return Charge{
			ID:       body.ID,
			Status:   body.Status,
			Amount:   body.Amount,
			Currency: body.Currency,
			Metadata: body.Metadata,
		}, nil

	case KindCheckoutSession:
		var body struct {
			ID            string         `json:"id"`
			PaymentStatus string         `json:"payment_status"`
			AmountTotal   int64          `json:"amount_total"`
			Currency      string         `json:"currency"`
			Metadata      ChargeMetadata `json:"metadata"`
		}
		if err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(ref.ID), nil, &body); err != nil {
			return Charge{}, err
		}
		return Charge{
			ID:       body.ID,
			Status:   body.PaymentStatus,
			Amount:   body.AmountTotal,
			Currency: body.Currency,
			Metadata: body.Metadata,
		}, nil

	default:
		return Charge{}, fmt.Errorf("%w: tipo de referência desconhecido %q", ErrInvalidReference, ref.Kind)
	}
}

// stripeError é o envelope de erro da API do Stripe.
type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do executa a chamada autenticada e decodifica a resposta JSON.
// Falhas de transporte e 5xx viram ErrUnavailable (retryável);
// 4xx vira ErrInvalidReference (terminal).
func (c *StripeClient) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Rede/timeout: nunca inventamos um "não pago" a partir disso.
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: stripe respondeu %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		var apiErr stripeError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("%w: %s", ErrInvalidReference, apiErr.Error.Message)
		}
		return fmt.Errorf("%w: stripe respondeu %d", ErrInvalidReference, resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: resposta inesperada do stripe: %v", ErrUnavailable, err)
	}
	return nil
}
