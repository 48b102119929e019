package domain

// CurrencyMYR is the ISO 4217 code for Malaysian Ringgit, the only currency
// the service charges in. All amounts are integer minor units (sen).
const CurrencyMYR = "MYR"
