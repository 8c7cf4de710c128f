package provider

import "fmt"

// New creates a Provider of the given type. Supported types are "whatsapp"
// and "stdout".
func New(typ string, cfg WhatsAppConfig, client HTTPClient) (Provider, error) {
	switch typ {
	case "whatsapp":
		if cfg.PhoneNumberID == "" || cfg.Token == "" {
			return nil, fmt.Errorf("whatsapp provider requires phone_number_id and token")
		}
		return NewWhatsApp(cfg, client), nil
	case "stdout":
		return NewStdout(), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %s", typ)
	}
}
