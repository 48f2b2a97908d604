package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearClienteRequest struct {
	Nombre    string `json:"nombre"    validate:"required,min=2,max=120"`
	RUC       string `json:"ruc"       validate:"max=20"`
	Telefono  string `json:"telefono"  validate:"max=30"`
	Direccion string `json:"direccion" validate:"max=200"`
}

type ActualizarClienteRequest struct {
	Nombre    *string `json:"nombre"    validate:"omitempty,min=2,max=120"`
	RUC       *string `json:"ruc"       validate:"omitempty,max=20"`
	Telefono  *string `json:"telefono"  validate:"omitempty,max=30"`
	Direccion *string `json:"direccion" validate:"omitempty,max=200"`
}

type ClienteFilter struct {
	Nombre string `form:"nombre"`
	RUC    string `form:"ruc"`
}

func (f ClienteFilter) Vacio() bool { return f.Nombre == "" && f.RUC == "" }

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ClienteResponse struct {
	ID        string `json:"id"`
	Nombre    string `json:"nombre"`
	RUC       string `json:"ruc"`
	Telefono  string `json:"telefono"`
	Direccion string `json:"direccion"`
}

type ClienteListResponse struct {
	Data  []ClienteResponse `json:"data"`
	Total int               `json:"total"`
}
