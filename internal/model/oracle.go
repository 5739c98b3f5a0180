package model

// OracleExtraction is the fixed target schema the structured-extraction
// oracle must fill. Every field is default-filled after parsing; absence in
// the oracle's raw response never surfaces as a nil section.
type OracleExtraction struct {
	Company    OracleCompany    `json:"company"`
	Business   OracleBusiness   `json:"business"`
	People     OraclePeople     `json:"people"`
	Technology OracleTechnology `json:"technology"`
	Market     OracleMarket     `json:"market"`
}

// OracleCompany holds corporate-identity fields.
type OracleCompany struct {
	LegalName    string `json:"legal_name"`
	Founded      string `json:"founded"`
	Headquarters string `json:"headquarters"`
	Description  string `json:"description"`
}

// OracleBusiness holds commercial-model fields.
type OracleBusiness struct {
	Industry        string   `json:"industry"`
	BusinessModel   string   `json:"business_model"`
	Services        []string `json:"services"`
	TargetCustomers []string `json:"target_customers"`
}

// OraclePeople holds workforce fields.
type OraclePeople struct {
	EmployeeCount string   `json:"employee_count"`
	KeyPeople     []string `json:"key_people"`
	Emails        []string `json:"emails"`
}

// OracleTechnology holds technology fields.
type OracleTechnology struct {
	Platforms []string `json:"platforms"`
	Analytics []string `json:"analytics"`
}

// OracleMarket holds market-position fields.
type OracleMarket struct {
	Competitors     []string `json:"competitors"`
	Differentiators []string `json:"differentiators"`
	FundingStage    string   `json:"funding_stage"`
}
