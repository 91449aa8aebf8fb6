// Package stripe is the provider-facing half of the mirror: response types,
// the id-or-object normalization, and the HTTP client with rate limiting and
// back-off.
//
// The structs below carry the fields the relational mapping persists.
// Document-shaped fields with no fixed schema stay json.RawMessage and land
// in JSON columns.
package stripe

import (
	"encoding/json"
	"fmt"
)

// Event is one entry from the provider's event stream.
type Event struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Created  int64  `json:"created"`
	Livemode bool   `json:"livemode"`
	Data     struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ObjectType returns the `object` discriminator of the event payload
// ("customer", "invoice", ...).
func (e *Event) ObjectType() (string, error) {
	var probe struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(e.Data.Object, &probe); err != nil {
		return "", fmt.Errorf("event %s: parse payload object: %w", e.ID, err)
	}
	if probe.Object == "" {
		return "", fmt.Errorf("event %s: payload has no object discriminator", e.ID)
	}
	return probe.Object, nil
}

// ObjectID returns the provider id of the event payload.
func (e *Event) ObjectID() (string, error) {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(e.Data.Object, &probe); err != nil {
		return "", fmt.Errorf("event %s: parse payload id: %w", e.ID, err)
	}
	if probe.ID == "" {
		return "", fmt.Errorf("event %s: payload has no id", e.ID)
	}
	return probe.ID, nil
}

// IsDelete reports whether the event is a deletion ("customer.deleted",
// "product.deleted", ...). Detach-style events are not deletes.
func (e *Event) IsDelete() bool {
	const suffix = ".deleted"
	return len(e.Type) > len(suffix) && e.Type[len(e.Type)-len(suffix):] == suffix
}

// Customer is the provider's customer object.
type Customer struct {
	ID            string                 `json:"id"`
	Object        string                 `json:"object"`
	Balance       int64                  `json:"balance"`
	Created       int64                  `json:"created"`
	Currency      *string                `json:"currency"`
	DefaultSource Expandable[Source]     `json:"default_source"`
	Deleted       bool                   `json:"deleted"`
	Delinquent    *bool                  `json:"delinquent"`
	Description   *string                `json:"description"`
	Discount      *Discount              `json:"discount"`
	Email         *string                `json:"email"`
	InvoicePrefix *string                `json:"invoice_prefix"`
	Livemode      bool                   `json:"livemode"`
	Metadata      json.RawMessage        `json:"metadata"`
	Name          *string                `json:"name"`
	Phone         *string                `json:"phone"`
	Shipping      json.RawMessage        `json:"shipping"`
	Sources       *List[json.RawMessage] `json:"sources"`
	TaxIDs        *List[TaxID]           `json:"tax_ids"`
}

// Charge is a payment attempt against a source or payment method.
type Charge struct {
	ID                   string                         `json:"id"`
	Amount               int64                          `json:"amount"`
	AmountCaptured       int64                          `json:"amount_captured"`
	AmountRefunded       int64                          `json:"amount_refunded"`
	BalanceTransaction   Expandable[BalanceTransaction] `json:"balance_transaction"`
	BillingDetails       json.RawMessage                `json:"billing_details"`
	Captured             bool                           `json:"captured"`
	Created              int64                          `json:"created"`
	Currency             string                         `json:"currency"`
	Customer             Expandable[Customer]           `json:"customer"`
	Description          *string                        `json:"description"`
	Disputed             bool                           `json:"disputed"`
	FailureCode          *string                        `json:"failure_code"`
	FailureMessage       *string                        `json:"failure_message"`
	Invoice              Expandable[Invoice]            `json:"invoice"`
	Livemode             bool                           `json:"livemode"`
	Metadata             json.RawMessage                `json:"metadata"`
	Order                Expandable[Order]              `json:"order"`
	Outcome              json.RawMessage                `json:"outcome"`
	Paid                 bool                           `json:"paid"`
	PaymentIntent        Expandable[PaymentIntent]      `json:"payment_intent"`
	PaymentMethod        *string                        `json:"payment_method"`
	PaymentMethodDetails json.RawMessage                `json:"payment_method_details"`
	ReceiptEmail         *string                        `json:"receipt_email"`
	ReceiptURL           *string                        `json:"receipt_url"`
	Refunded             bool                           `json:"refunded"`
	Refunds              *List[Refund]                  `json:"refunds"`
	Shipping             json.RawMessage                `json:"shipping"`
	StatementDescriptor  *string                        `json:"statement_descriptor"`
	Status               string                         `json:"status"`
}

// Refund is a (partial) reversal of a charge. Refunds are never deleted.
type Refund struct {
	ID                        string                         `json:"id"`
	Amount                    int64                          `json:"amount"`
	BalanceTransaction        Expandable[BalanceTransaction] `json:"balance_transaction"`
	Charge                    Expandable[Charge]             `json:"charge"`
	Created                   int64                          `json:"created"`
	Currency                  string                         `json:"currency"`
	FailureBalanceTransaction Expandable[BalanceTransaction] `json:"failure_balance_transaction"`
	FailureReason             *string                        `json:"failure_reason"`
	Metadata                  json.RawMessage                `json:"metadata"`
	PaymentIntent             Expandable[PaymentIntent]      `json:"payment_intent"`
	Reason                    *string                        `json:"reason"`
	ReceiptNumber             *string                        `json:"receipt_number"`
	Status                    *string                        `json:"status"`
}

// Coupon is a discount template. Provider delete expires it for new uses;
// issued discounts keep referencing it, so the mirror never removes the row.
type Coupon struct {
	ID               string          `json:"id"`
	AmountOff        *int64          `json:"amount_off"`
	Created          int64           `json:"created"`
	Currency         *string         `json:"currency"`
	Deleted          bool            `json:"deleted"`
	Duration         string          `json:"duration"`
	DurationInMonths *int64          `json:"duration_in_months"`
	Livemode         bool            `json:"livemode"`
	MaxRedemptions   *int64          `json:"max_redemptions"`
	Metadata         json.RawMessage `json:"metadata"`
	Name             *string         `json:"name"`
	PercentOff       *float64        `json:"percent_off"`
	RedeemBy         *int64          `json:"redeem_by"`
	TimesRedeemed    int64           `json:"times_redeemed"`
	Valid            bool            `json:"valid"`
}

// Discount attaches a coupon to a customer, subscription, or invoice.
type Discount struct {
	ID              string                    `json:"id"`
	CheckoutSession *string                   `json:"checkout_session"`
	Coupon          Coupon                    `json:"coupon"`
	Customer        Expandable[Customer]      `json:"customer"`
	End             *int64                    `json:"end"`
	Invoice         *string                   `json:"invoice"`
	InvoiceItem     *string                   `json:"invoice_item"`
	PromotionCode   Expandable[PromotionCode] `json:"promotion_code"`
	Start           int64                     `json:"start"`
	Subscription    *string                   `json:"subscription"`
}

// Price is the successor of Plan. Prices created inline via price_data are
// not listable and have no events; they only enter the mirror through the
// objects that reference them.
type Price struct {
	ID                string              `json:"id"`
	Active            bool                `json:"active"`
	BillingScheme     string              `json:"billing_scheme"`
	Created           int64               `json:"created"`
	Currency          string              `json:"currency"`
	Livemode          bool                `json:"livemode"`
	LookupKey         *string             `json:"lookup_key"`
	Metadata          json.RawMessage     `json:"metadata"`
	Nickname          *string             `json:"nickname"`
	Product           Expandable[Product] `json:"product"`
	Recurring         json.RawMessage     `json:"recurring"`
	Tiers             json.RawMessage     `json:"tiers"`
	TiersMode         *string             `json:"tiers_mode"`
	TransformQuantity json.RawMessage     `json:"transform_quantity"`
	Type              string              `json:"type"`
	UnitAmount        *int64              `json:"unit_amount"`
	UnitAmountDecimal *string             `json:"unit_amount_decimal"`
}

// Plan is the legacy pricing object.
type Plan struct {
	ID              string              `json:"id"`
	Active          bool                `json:"active"`
	AggregateUsage  *string             `json:"aggregate_usage"`
	Amount          *int64              `json:"amount"`
	AmountDecimal   *string             `json:"amount_decimal"`
	BillingScheme   string              `json:"billing_scheme"`
	Created         int64               `json:"created"`
	Currency        string              `json:"currency"`
	Deleted         bool                `json:"deleted"`
	Interval        string              `json:"interval"`
	IntervalCount   int64               `json:"interval_count"`
	Livemode        bool                `json:"livemode"`
	Metadata        json.RawMessage     `json:"metadata"`
	Nickname        *string             `json:"nickname"`
	Product         Expandable[Product] `json:"product"`
	Tiers           json.RawMessage     `json:"tiers"`
	TiersMode       *string             `json:"tiers_mode"`
	TransformUsage  json.RawMessage     `json:"transform_usage"`
	TrialPeriodDays *int64              `json:"trial_period_days"`
	UsageType       string              `json:"usage_type"`
}

// Product is a sellable good or service.
type Product struct {
	ID                  string          `json:"id"`
	Active              bool            `json:"active"`
	Attributes          json.RawMessage `json:"attributes"`
	Caption             *string         `json:"caption"`
	Created             int64           `json:"created"`
	Deleted             bool            `json:"deleted"`
	Description         *string         `json:"description"`
	Images              json.RawMessage `json:"images"`
	Livemode            bool            `json:"livemode"`
	Metadata            json.RawMessage `json:"metadata"`
	Name                string          `json:"name"`
	PackageDimensions   json.RawMessage `json:"package_dimensions"`
	Shippable           *bool           `json:"shippable"`
	StatementDescriptor *string         `json:"statement_descriptor"`
	Type                string          `json:"type"`
	UnitLabel           *string         `json:"unit_label"`
	Updated             int64           `json:"updated"`
	URL                 *string         `json:"url"`
}

// SKU is a purchasable variant of a product.
type SKU struct {
	ID                string              `json:"id"`
	Active            bool                `json:"active"`
	Attributes        json.RawMessage     `json:"attributes"`
	Created           int64               `json:"created"`
	Currency          string              `json:"currency"`
	Deleted           bool                `json:"deleted"`
	Image             *string             `json:"image"`
	Inventory         json.RawMessage     `json:"inventory"`
	Livemode          bool                `json:"livemode"`
	Metadata          json.RawMessage     `json:"metadata"`
	PackageDimensions json.RawMessage     `json:"package_dimensions"`
	Price             int64               `json:"price"`
	Product           Expandable[Product] `json:"product"`
	Updated           int64               `json:"updated"`
}

// Order groups SKUs into a purchase. Items have no provider ids and stay a
// JSON column; returns are id-bearing child rows.
type Order struct {
	ID                     string               `json:"id"`
	Amount                 int64                `json:"amount"`
	AmountReturned         *int64               `json:"amount_returned"`
	Charge                 Expandable[Charge]   `json:"charge"`
	Created                int64                `json:"created"`
	Currency               string               `json:"currency"`
	Customer               Expandable[Customer] `json:"customer"`
	Email                  *string              `json:"email"`
	Items                  json.RawMessage      `json:"items"`
	Livemode               bool                 `json:"livemode"`
	Metadata               json.RawMessage      `json:"metadata"`
	Returns                *List[OrderReturn]   `json:"returns"`
	SelectedShippingMethod *string              `json:"selected_shipping_method"`
	Shipping               json.RawMessage      `json:"shipping"`
	ShippingMethods        json.RawMessage      `json:"shipping_methods"`
	Status                 string               `json:"status"`
	StatusTransitions      json.RawMessage      `json:"status_transitions"`
	Updated                *int64               `json:"updated"`
	UpstreamID             *string              `json:"upstream_id"`
}

// OrderReturn records items handed back from an order.
type OrderReturn struct {
	ID       string             `json:"id"`
	Amount   int64              `json:"amount"`
	Created  int64              `json:"created"`
	Currency string             `json:"currency"`
	Items    json.RawMessage    `json:"items"`
	Livemode bool               `json:"livemode"`
	Order    Expandable[Order]  `json:"order"`
	Refund   Expandable[Refund] `json:"refund"`
}

// Invoice is a bill for a customer. Line items are id-bearing child rows
// replaced wholesale on every update event.
type Invoice struct {
	ID                   string                    `json:"id"`
	AccountCountry       *string                   `json:"account_country"`
	AccountName          *string                   `json:"account_name"`
	AmountDue            int64                     `json:"amount_due"`
	AmountPaid           int64                     `json:"amount_paid"`
	AmountRemaining      int64                     `json:"amount_remaining"`
	AttemptCount         int64                     `json:"attempt_count"`
	Attempted            bool                      `json:"attempted"`
	AutoAdvance          *bool                     `json:"auto_advance"`
	BillingReason        *string                   `json:"billing_reason"`
	Charge               Expandable[Charge]        `json:"charge"`
	CollectionMethod     *string                   `json:"collection_method"`
	Created              int64                     `json:"created"`
	Currency             string                    `json:"currency"`
	Customer             Expandable[Customer]      `json:"customer"`
	CustomerEmail        *string                   `json:"customer_email"`
	CustomerName         *string                   `json:"customer_name"`
	Deleted              bool                      `json:"deleted"`
	DefaultPaymentMethod Expandable[PaymentMethod] `json:"default_payment_method"`
	Description          *string                   `json:"description"`
	Discount             *Discount                 `json:"discount"`
	Discounts            []Expandable[Discount]    `json:"discounts"`
	DueDate              *int64                    `json:"due_date"`
	EndingBalance        *int64                    `json:"ending_balance"`
	HostedInvoiceURL     *string                   `json:"hosted_invoice_url"`
	InvoicePDF           *string                   `json:"invoice_pdf"`
	Lines                *List[InvoiceLineItem]    `json:"lines"`
	Livemode             bool                      `json:"livemode"`
	Metadata             json.RawMessage           `json:"metadata"`
	NextPaymentAttempt   *int64                    `json:"next_payment_attempt"`
	Number               *string                   `json:"number"`
	Paid                 bool                      `json:"paid"`
	PaymentIntent        Expandable[PaymentIntent] `json:"payment_intent"`
	PeriodEnd            int64                     `json:"period_end"`
	PeriodStart          int64                     `json:"period_start"`
	ReceiptNumber        *string                   `json:"receipt_number"`
	StartingBalance      int64                     `json:"starting_balance"`
	StatementDescriptor  *string                   `json:"statement_descriptor"`
	Status               *string                   `json:"status"`
	StatusTransitions    json.RawMessage           `json:"status_transitions"`
	Subscription         Expandable[Subscription]  `json:"subscription"`
	Subtotal             int64                     `json:"subtotal"`
	Tax                  *int64                    `json:"tax"`
	Total                int64                     `json:"total"`
	TotalDiscountAmounts json.RawMessage           `json:"total_discount_amounts"`
	TotalTaxAmounts      json.RawMessage           `json:"total_tax_amounts"`
	WebhooksDeliveredAt  *int64                    `json:"webhooks_delivered_at"`
}

// InvoiceLineItem is one line on an invoice.
type InvoiceLineItem struct {
	ID               string          `json:"id"`
	Amount           int64           `json:"amount"`
	Currency         string          `json:"currency"`
	Description      *string         `json:"description"`
	DiscountAmounts  json.RawMessage `json:"discount_amounts"`
	Discountable     bool            `json:"discountable"`
	Discounts        json.RawMessage `json:"discounts"`
	InvoiceItem      *string         `json:"invoice_item"`
	Livemode         bool            `json:"livemode"`
	Metadata         json.RawMessage `json:"metadata"`
	Period           json.RawMessage `json:"period"`
	Plan             *Plan           `json:"plan"`
	Price            *Price          `json:"price"`
	Proration        bool            `json:"proration"`
	Quantity         *int64          `json:"quantity"`
	Subscription     *string         `json:"subscription"`
	SubscriptionItem *string         `json:"subscription_item"`
	TaxAmounts       json.RawMessage `json:"tax_amounts"`
	TaxRates         []TaxRate       `json:"tax_rates"`
	Type             string          `json:"type"`
}

// InvoiceItem is a pending charge or credit staged for a customer's next
// invoice.
type InvoiceItem struct {
	ID                string                   `json:"id"`
	Amount            int64                    `json:"amount"`
	Currency          string                   `json:"currency"`
	Customer          Expandable[Customer]     `json:"customer"`
	Date              int64                    `json:"date"`
	Deleted           bool                     `json:"deleted"`
	Description       *string                  `json:"description"`
	Discountable      bool                     `json:"discountable"`
	Discounts         json.RawMessage          `json:"discounts"`
	Invoice           Expandable[Invoice]      `json:"invoice"`
	Livemode          bool                     `json:"livemode"`
	Metadata          json.RawMessage          `json:"metadata"`
	Period            json.RawMessage          `json:"period"`
	Price             *Price                   `json:"price"`
	Proration         bool                     `json:"proration"`
	Quantity          int64                    `json:"quantity"`
	Subscription      Expandable[Subscription] `json:"subscription"`
	TaxRates          []TaxRate                `json:"tax_rates"`
	UnitAmount        *int64                   `json:"unit_amount"`
	UnitAmountDecimal *string                  `json:"unit_amount_decimal"`
}

// CreditNote adjusts a finalized invoice. Line items are child rows.
type CreditNote struct {
	ID             string                    `json:"id"`
	Amount         int64                     `json:"amount"`
	Created        int64                     `json:"created"`
	Currency       string                    `json:"currency"`
	Customer       Expandable[Customer]      `json:"customer"`
	DiscountAmount int64                     `json:"discount_amount"`
	Invoice        Expandable[Invoice]       `json:"invoice"`
	Lines          *List[CreditNoteLineItem] `json:"lines"`
	Livemode       bool                      `json:"livemode"`
	Memo           *string                   `json:"memo"`
	Metadata       json.RawMessage           `json:"metadata"`
	Number         string                    `json:"number"`
	OutOfBandAmount *int64                   `json:"out_of_band_amount"`
	PDF            *string                   `json:"pdf"`
	Reason         *string                   `json:"reason"`
	Refund         Expandable[Refund]        `json:"refund"`
	Status         string                    `json:"status"`
	Subtotal       int64                     `json:"subtotal"`
	TaxAmounts     json.RawMessage           `json:"tax_amounts"`
	Total          int64                     `json:"total"`
	Type           string                    `json:"type"`
	VoidedAt       *int64                    `json:"voided_at"`
}

// CreditNoteLineItem is one line of a credit note.
type CreditNoteLineItem struct {
	ID                string          `json:"id"`
	Amount            int64           `json:"amount"`
	Description       *string         `json:"description"`
	DiscountAmount    int64           `json:"discount_amount"`
	DiscountAmounts   json.RawMessage `json:"discount_amounts"`
	InvoiceLineItem   *string         `json:"invoice_line_item"`
	Livemode          bool            `json:"livemode"`
	Quantity          *int64          `json:"quantity"`
	TaxAmounts        json.RawMessage `json:"tax_amounts"`
	TaxRates          []TaxRate       `json:"tax_rates"`
	Type              string          `json:"type"`
	UnitAmount        *int64          `json:"unit_amount"`
	UnitAmountDecimal *string         `json:"unit_amount_decimal"`
}

// PaymentMethod is a reusable payment instrument. The provider never
// deletes them; detaching clears the customer pointer.
type PaymentMethod struct {
	ID             string               `json:"id"`
	BillingDetails json.RawMessage      `json:"billing_details"`
	Card           json.RawMessage      `json:"card"`
	Created        int64                `json:"created"`
	Customer       Expandable[Customer] `json:"customer"`
	Livemode       bool                 `json:"livemode"`
	Metadata       json.RawMessage      `json:"metadata"`
	Type           string               `json:"type"`
}

// Source is a legacy payment source.
type Source struct {
	ID                  string          `json:"id"`
	Amount              *int64          `json:"amount"`
	ClientSecret        string          `json:"client_secret"`
	Created             int64           `json:"created"`
	Currency            *string         `json:"currency"`
	Customer            *string         `json:"customer"`
	Flow                string          `json:"flow"`
	Livemode            bool            `json:"livemode"`
	Metadata            json.RawMessage `json:"metadata"`
	Owner               json.RawMessage `json:"owner"`
	StatementDescriptor *string         `json:"statement_descriptor"`
	Status              string          `json:"status"`
	Type                string          `json:"type"`
	Usage               *string         `json:"usage"`
}

// BankAccount is a customer-attached bank account.
type BankAccount struct {
	ID                string               `json:"id"`
	AccountHolderName *string              `json:"account_holder_name"`
	AccountHolderType *string              `json:"account_holder_type"`
	BankName          *string              `json:"bank_name"`
	Country           string               `json:"country"`
	Currency          string               `json:"currency"`
	Customer          Expandable[Customer] `json:"customer"`
	Fingerprint       *string              `json:"fingerprint"`
	Last4             string               `json:"last4"`
	Metadata          json.RawMessage      `json:"metadata"`
	RoutingNumber     *string              `json:"routing_number"`
	Status            string               `json:"status"`
}

// Card is a customer-attached card source.
type Card struct {
	ID          string               `json:"id"`
	Brand       string               `json:"brand"`
	Country     *string              `json:"country"`
	Customer    Expandable[Customer] `json:"customer"`
	CVCCheck    *string              `json:"cvc_check"`
	ExpMonth    int64                `json:"exp_month"`
	ExpYear     int64                `json:"exp_year"`
	Fingerprint *string              `json:"fingerprint"`
	Funding     string               `json:"funding"`
	Last4       string               `json:"last4"`
	Metadata    json.RawMessage      `json:"metadata"`
	Name        *string              `json:"name"`
}

// Subscription bills a customer on a schedule. Items are child rows.
type Subscription struct {
	ID                    string                           `json:"id"`
	ApplicationFeePercent *float64                         `json:"application_fee_percent"`
	BillingCycleAnchor    int64                            `json:"billing_cycle_anchor"`
	BillingThresholds     json.RawMessage                  `json:"billing_thresholds"`
	CancelAt              *int64                           `json:"cancel_at"`
	CancelAtPeriodEnd     bool                             `json:"cancel_at_period_end"`
	CanceledAt            *int64                           `json:"canceled_at"`
	CollectionMethod      *string                          `json:"collection_method"`
	Created               int64                            `json:"created"`
	CurrentPeriodEnd      int64                            `json:"current_period_end"`
	CurrentPeriodStart    int64                            `json:"current_period_start"`
	Customer              Expandable[Customer]             `json:"customer"`
	DaysUntilDue          *int64                           `json:"days_until_due"`
	DefaultPaymentMethod  Expandable[PaymentMethod]        `json:"default_payment_method"`
	Discount              *Discount                        `json:"discount"`
	EndedAt               *int64                           `json:"ended_at"`
	Items                 *List[SubscriptionItem]          `json:"items"`
	LatestInvoice         Expandable[Invoice]              `json:"latest_invoice"`
	Livemode              bool                             `json:"livemode"`
	Metadata              json.RawMessage                  `json:"metadata"`
	PauseCollection       json.RawMessage                  `json:"pause_collection"`
	Schedule              Expandable[SubscriptionSchedule] `json:"schedule"`
	StartDate             int64                            `json:"start_date"`
	Status                string                           `json:"status"`
	TrialEnd              *int64                           `json:"trial_end"`
	TrialStart            *int64                           `json:"trial_start"`
}

// SubscriptionItem attaches one price to a subscription.
type SubscriptionItem struct {
	ID                string          `json:"id"`
	BillingThresholds json.RawMessage `json:"billing_thresholds"`
	Created           int64           `json:"created"`
	Deleted           bool            `json:"deleted"`
	Metadata          json.RawMessage `json:"metadata"`
	Price             *Price          `json:"price"`
	Quantity          *int64          `json:"quantity"`
	Subscription      string          `json:"subscription"`
	TaxRates          []TaxRate       `json:"tax_rates"`
}

// SubscriptionSchedule drives phased subscription changes.
type SubscriptionSchedule struct {
	ID                   string                   `json:"id"`
	CanceledAt           *int64                   `json:"canceled_at"`
	CompletedAt          *int64                   `json:"completed_at"`
	Created              int64                    `json:"created"`
	CurrentPhase         json.RawMessage          `json:"current_phase"`
	Customer             Expandable[Customer]     `json:"customer"`
	DefaultSettings      json.RawMessage          `json:"default_settings"`
	EndBehavior          string                   `json:"end_behavior"`
	Livemode             bool                     `json:"livemode"`
	Metadata             json.RawMessage          `json:"metadata"`
	Phases               json.RawMessage          `json:"phases"`
	ReleasedAt           *int64                   `json:"released_at"`
	ReleasedSubscription *string                  `json:"released_subscription"`
	Status               string                   `json:"status"`
	Subscription         Expandable[Subscription] `json:"subscription"`
}

// Session is a checkout session. Line items and shipping methods have no
// provider ids and stay JSON columns.
type Session struct {
	ID                 string                    `json:"id"`
	AllowPromotionCodes *bool                    `json:"allow_promotion_codes"`
	AmountSubtotal     *int64                    `json:"amount_subtotal"`
	AmountTotal        *int64                    `json:"amount_total"`
	CancelURL          string                    `json:"cancel_url"`
	ClientReferenceID  *string                   `json:"client_reference_id"`
	Currency           *string                   `json:"currency"`
	Customer           Expandable[Customer]      `json:"customer"`
	CustomerEmail      *string                   `json:"customer_email"`
	LineItems          *List[json.RawMessage]    `json:"line_items"`
	Livemode           bool                      `json:"livemode"`
	Locale             *string                   `json:"locale"`
	Metadata           json.RawMessage           `json:"metadata"`
	Mode               string                    `json:"mode"`
	PaymentIntent      Expandable[PaymentIntent] `json:"payment_intent"`
	PaymentMethodTypes json.RawMessage           `json:"payment_method_types"`
	PaymentStatus      string                    `json:"payment_status"`
	SetupIntent        Expandable[SetupIntent]   `json:"setup_intent"`
	Shipping           json.RawMessage           `json:"shipping"`
	SubmitType         *string                   `json:"submit_type"`
	Subscription       Expandable[Subscription]  `json:"subscription"`
	SuccessURL         string                    `json:"success_url"`
	TotalDetails       json.RawMessage           `json:"total_details"`
}

// Dispute challenges a charge.
type Dispute struct {
	ID                  string                    `json:"id"`
	Amount              int64                     `json:"amount"`
	BalanceTransactions json.RawMessage           `json:"balance_transactions"`
	Charge              Expandable[Charge]        `json:"charge"`
	Created             int64                     `json:"created"`
	Currency            string                    `json:"currency"`
	Evidence            json.RawMessage           `json:"evidence"`
	EvidenceDetails     json.RawMessage           `json:"evidence_details"`
	IsChargeRefundable  bool                      `json:"is_charge_refundable"`
	Livemode            bool                      `json:"livemode"`
	Metadata            json.RawMessage           `json:"metadata"`
	PaymentIntent       Expandable[PaymentIntent] `json:"payment_intent"`
	Reason              string                    `json:"reason"`
	Status              string                    `json:"status"`
}

// BalanceTransaction is one movement on the account balance.
type BalanceTransaction struct {
	ID                string          `json:"id"`
	Amount            int64           `json:"amount"`
	AvailableOn       int64           `json:"available_on"`
	Created           int64           `json:"created"`
	Currency          string          `json:"currency"`
	Description       *string         `json:"description"`
	ExchangeRate      *float64        `json:"exchange_rate"`
	Fee               int64           `json:"fee"`
	FeeDetails        json.RawMessage `json:"fee_details"`
	Net               int64           `json:"net"`
	ReportingCategory string          `json:"reporting_category"`
	Source            *string         `json:"source"`
	Status            string          `json:"status"`
	Type              string          `json:"type"`
}

// TaxRate is a named tax percentage.
type TaxRate struct {
	ID          string          `json:"id"`
	Active      bool            `json:"active"`
	Country     *string         `json:"country"`
	Created     int64           `json:"created"`
	Description *string         `json:"description"`
	DisplayName string          `json:"display_name"`
	Inclusive   bool            `json:"inclusive"`
	Jurisdiction *string        `json:"jurisdiction"`
	Livemode    bool            `json:"livemode"`
	Metadata    json.RawMessage `json:"metadata"`
	Percentage  float64         `json:"percentage"`
	State       *string         `json:"state"`
}

// TaxID is a customer tax identifier, listable only through its customer.
type TaxID struct {
	ID           string               `json:"id"`
	Country      *string              `json:"country"`
	Created      int64                `json:"created"`
	Customer     Expandable[Customer] `json:"customer"`
	Livemode     bool                 `json:"livemode"`
	Type         string               `json:"type"`
	Value        string               `json:"value"`
	Verification json.RawMessage      `json:"verification"`
}

// PromotionCode is a customer-redeemable code wrapping a coupon.
type PromotionCode struct {
	ID             string               `json:"id"`
	Active         bool                 `json:"active"`
	Code           string               `json:"code"`
	Coupon         Coupon               `json:"coupon"`
	Created        int64                `json:"created"`
	Customer       Expandable[Customer] `json:"customer"`
	ExpiresAt      *int64               `json:"expires_at"`
	Livemode       bool                 `json:"livemode"`
	MaxRedemptions *int64               `json:"max_redemptions"`
	Metadata       json.RawMessage      `json:"metadata"`
	Restrictions   json.RawMessage      `json:"restrictions"`
	TimesRedeemed  int64                `json:"times_redeemed"`
}

// PaymentIntent tracks a payment through its lifecycle. Charges are
// id-bearing child objects written through the charge mapping.
type PaymentIntent struct {
	ID                  string               `json:"id"`
	Amount              int64                `json:"amount"`
	AmountCapturable    int64                `json:"amount_capturable"`
	AmountReceived      int64                `json:"amount_received"`
	CanceledAt          *int64               `json:"canceled_at"`
	CancellationReason  *string              `json:"cancellation_reason"`
	CaptureMethod       string               `json:"capture_method"`
	Charges             *List[Charge]        `json:"charges"`
	ConfirmationMethod  string               `json:"confirmation_method"`
	Created             int64                `json:"created"`
	Currency            string               `json:"currency"`
	Customer            Expandable[Customer] `json:"customer"`
	Description         *string              `json:"description"`
	Invoice             Expandable[Invoice]  `json:"invoice"`
	Livemode            bool                 `json:"livemode"`
	Metadata            json.RawMessage      `json:"metadata"`
	NextAction          json.RawMessage      `json:"next_action"`
	PaymentMethod       *string              `json:"payment_method"`
	PaymentMethodTypes  json.RawMessage      `json:"payment_method_types"`
	ReceiptEmail        *string              `json:"receipt_email"`
	SetupFutureUsage    *string              `json:"setup_future_usage"`
	Shipping            json.RawMessage      `json:"shipping"`
	StatementDescriptor *string              `json:"statement_descriptor"`
	Status              string               `json:"status"`
}

// SetupIntent prepares a payment method for future payments.
type SetupIntent struct {
	ID                 string               `json:"id"`
	CancellationReason *string              `json:"cancellation_reason"`
	Created            int64                `json:"created"`
	Customer           Expandable[Customer] `json:"customer"`
	Description        *string              `json:"description"`
	LastSetupError     json.RawMessage      `json:"last_setup_error"`
	Livemode           bool                 `json:"livemode"`
	Mandate            *string              `json:"mandate"`
	Metadata           json.RawMessage      `json:"metadata"`
	NextAction         json.RawMessage      `json:"next_action"`
	PaymentMethod      *string              `json:"payment_method"`
	PaymentMethodTypes json.RawMessage      `json:"payment_method_types"`
	Status             string               `json:"status"`
	Usage              string               `json:"usage"`
}
