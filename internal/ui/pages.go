package ui

import (
	"fmt"

	"schoolbook/internal/domain"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"
)

type recordRowData struct {
	Filter string
	Cells  []string
}

type recordsPageData struct {
	Dataset string
	Term    string
	Columns []string
	Rows    []recordRowData
}

func recordsPage(d recordsPageData) Node {
	head := make([]Node, 0, len(d.Columns))
	for _, col := range d.Columns {
		head = append(head, Th(Text(col)))
	}

	tableRows := make([]Node, 0, len(d.Rows))
	for i := range d.Rows {
		row := d.Rows[i]
		cells := make([]Node, 0, len(row.Cells))
		for _, cell := range row.Cells {
			cells = append(cells, Td(Text(cell)))
		}
		tableRows = append(tableRows, Tr(data.Show(containsExpr(row.Filter)), Group(cells)))
	}

	caption := fmt.Sprintf("%d records in %s", len(d.Rows), d.Dataset)
	if d.Term != "" {
		caption = fmt.Sprintf("%d records in %s matching %q", len(d.Rows), d.Dataset, d.Term)
	}

	var table Node
	if len(d.Rows) == 0 {
		message := "No records loaded yet. Run the loader to populate this dataset."
		if d.Term != "" {
			message = fmt.Sprintf("No records match %q.", d.Term)
		}
		table = emptyStateCard(message)
	} else {
		table = Div(
			Class(cardClass("table-wrap")),
			Table(
				THead(Tr(Group(head))),
				TBody(Group(tableRows)),
			),
		)
	}

	return appPage(
		"Records",
		"records",
		searchCard(d.Term),
		Div(
			data.Signals(map[string]any{"q": ""}),
			quickFilterCard("Narrow visible rows"),
			P(Class(mutedClass()), Text(caption)),
			table,
		),
	)
}

// searchCard is the server-side search form. Submitting reloads the page
// with ?name=<term>; the current term is echoed back into the input.
func searchCard(term string) Node {
	clear := Node(nil)
	if term != "" {
		clear = A(Href("/"), Class(secondaryButtonClass()), Text("Clear"))
	}
	return Div(
		Class(cardClass("toolbar")),
		Form(
			Method("get"),
			Action("/"),
			Class("d-flex flex-items-center gap-2"),
			Label(Class("sr-only"), For("name"), Text("Search by name")),
			Input(Type("search"), ID("name"), Name("name"), Value(term), Class("form-control flex-1"), Placeholder("Search by name"), AutoComplete("off")),
			Button(Type("submit"), Class(primaryButtonClass()), Text("Search")),
			clear,
		),
	)
}

type loadRowData struct {
	Dataset  string
	Status   string
	Rows     string
	Columns  string
	Source   string
	Started  string
	Duration string
	Error    string
}

func loadsPage(rows []loadRowData, page domain.PageRequest, total int64) Node {
	tableRows := make([]Node, 0, len(rows))
	for i := range rows {
		row := rows[i]
		tone := "success"
		if row.Status != domain.LoadSucceeded {
			tone = "danger"
		}
		tableRows = append(tableRows, Tr(
			data.Show(containsExpr(row.Dataset)),
			Td(Text(row.Dataset)),
			Td(statusLabel(row.Status, tone)),
			Td(Text(row.Rows)),
			Td(Text(row.Columns)),
			Td(Text(row.Source)),
			Td(Text(row.Started)),
			Td(Text(row.Duration)),
			Td(Text(row.Error)),
		))
	}

	var table Node
	if len(rows) == 0 {
		table = emptyStateCard("No loads recorded yet.")
	} else {
		table = Div(
			Class(cardClass("table-wrap")),
			Table(
				THead(Tr(
					Th(Text("Dataset")),
					Th(Text("Status")),
					Th(Text("Rows")),
					Th(Text("Columns")),
					Th(Text("Source")),
					Th(Text("Started")),
					Th(Text("Duration")),
					Th(Text("Error")),
				)),
				TBody(Group(tableRows)),
			),
		)
	}

	return appPage(
		"Load History",
		"loads",
		Div(
			data.Signals(map[string]any{"q": ""}),
			quickFilterCard("Filter by dataset"),
			table,
		),
		paginationCard("/loads", page, total),
	)
}
