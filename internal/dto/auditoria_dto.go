package dto

// AuditoriaFilter is bound from GET /v1/auditoria.
type AuditoriaFilter struct {
	Modulo  string `form:"modulo"`
	Usuario string `form:"usuario"`
	Accion  string `form:"accion"`
	Desde   string `form:"desde" validate:"omitempty,datetime=2006-01-02"`
	Hasta   string `form:"hasta" validate:"omitempty,datetime=2006-01-02"`
	Page    int    `form:"page,default=1"   validate:"min=1"`
	Limit   int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type AuditoriaResponse struct {
	ID        string         `json:"id"`
	Accion    string         `json:"accion"`
	UsuarioID *string        `json:"usuario_id"`
	Usuario   string         `json:"usuario"`
	Modulo    string         `json:"modulo"`
	Detalle   map[string]any `json:"detalle"`
	Fecha     string         `json:"fecha"`
}

type AuditoriaListResponse struct {
	Data  []AuditoriaResponse `json:"data"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}
