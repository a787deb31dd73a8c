package ports

import (
	"context"
	"encoding/json"
)

// UpstreamClient chama o provedor de métricas SEO.
type UpstreamClient interface {
	// Ready devolve domain.ErrConfigMissing quando as credenciais não estão configuradas.
	Ready() error
	// Call devolve o array "result" da primeira task do envelope do provedor.
	Call(ctx context.Context, method, endpoint string, payload any) (json.RawMessage, error)
}
