package ai

import "github.com/tmc/langchaingo/prompts"

// responseCue ends the response prompt; the model continues after it.
const responseCue = "Response :"

// queryTemplate asks the model for a single SQL statement.
// Variables: dialect, schema, question.
const queryTemplate = `below is the schema of {{.dialect}} database, read the schema carefully about the table and column names. Also take care of table or column name case sensitivity.
Finally answer user's question in the form of SQL query.

{{.schema}}

please only provide the SQL query and nothing else

for example:
question: how many waste management company we have in database
SQL query: SELECT COUNT(*) FROM PERUSAHAAN_LIMBAH;
question: how many waste management company are from Cimahi in the database ?
SQL query: SELECT COUNT(*) FROM PERUSAHAAN_LIMBAH WHERE kota_perusahaan_limbah="KOTA CIMAHI";

your turn :
question: {{.question}}
SQL query :
please only provide the SQL query and nothing else
`

// responseTemplate asks the model to phrase a query result as an answer.
// Variables: dialect, schema, question, query, result.
const responseTemplate = `below is the schema of {{.dialect}} database, read the schema carefully about the table and column names of each table.
Finally write a response in natural language by looking into the result.

{{.schema}}

Here are some example for you:
question: how many waste management company we have in database
SQL query: SELECT COUNT(*) FROM PERUSAHAAN_LIMBAH;
Result: [(10,)]
Response: We have 10 waste management companies in the database.

question: how many waste management company are from Cimahi in the database ?
SQL query: SELECT COUNT(*) FROM PERUSAHAAN_LIMBAH WHERE kota_perusahaan_limbah="KOTA CIMAHI";
Result: [(2,)]
Response: We have 2 waste management companies from Cimahi in the database.

question: How many vehicles are categorized as "DUMP TRUCK" in the database?
SQL query: SELECT COUNT(*) FROM transportasi WHERE jenis_kendaraan = 'DUMP TRUCK';
Result: [(3,)]
Response: There are 3 vehicles categorized as "DUMP TRUCK" in the database.

question: How many types of inorganic waste are processed using the "REUSE" method?
SQL query: SELECT COUNT(*) FROM pengolahan_anorganik WHERE cara_pengolahan = 'REUSE';
Result: [(4,)]
Response: There are 4 types of inorganic waste processed using the "REUSE" method in the database.

your turn to write response in natural language from the given result :
question: {{.question}}
SQL query : {{.query}}
Result : {{.result}}
please only provide the response in natural language and nothing else
` + responseCue + "\n"

var (
	queryPrompt    = prompts.NewPromptTemplate(queryTemplate, []string{"dialect", "schema", "question"})
	responsePrompt = prompts.NewPromptTemplate(responseTemplate, []string{"dialect", "schema", "question", "query", "result"})
)
