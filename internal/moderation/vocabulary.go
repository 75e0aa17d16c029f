package moderation

type Category string

const (
	CategoryContact Category = "contact_exchange"
	CategoryPayment Category = "off_platform_payment"
	CategoryLodging Category = "address_lodging"
)

// Vocabulary is a versioned, read-only term list. Terms are matched as
// lowercase substrings.
type Vocabulary struct {
	Version string                `yaml:"version"`
	Terms   map[Category][]string `yaml:"terms"`
}

// categoryOrder fixes the order categories are reported in.
var categoryOrder = []Category{CategoryContact, CategoryPayment, CategoryLodging}

// DefaultVocabulary is v1 of the built-in term list.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Version: "v1",
		Terms: map[Category][]string{
			CategoryContact: {
				"phone", "number", "call me", "text me", "whatsapp", "telegram",
				"signal", "viber", "wechat", "skype", "snapchat", "instagram",
				"insta", "facebook", "messenger", "email", "gmail", "yahoo",
				"hotmail", "outlook", "@", "contact me", "dm me",
			},
			CategoryPayment: {
				"paypal", "venmo", "cashapp", "cash app", "zelle", "upi", "paytm",
				"gpay", "google pay", "phonepe", "bank transfer", "bank account",
				"account number", "ifsc", "western union", "crypto", "bitcoin", "cash",
			},
			CategoryLodging: {
				"address", "hotel", "room number", "my place", "your place",
				"airbnb", "lodge", "motel", "meet outside",
			},
		},
	}
}
