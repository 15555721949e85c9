package models

// ColumnMap names the spreadsheet columns (and remote-store columns) that
// hold each record field. An empty name means the field is not part of the
// import schema.
type ColumnMap struct {
	Code        string `yaml:"code"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	Stock       string `yaml:"stock"`
	MinStock    string `yaml:"min_stock"`
}
