package planner

// Prompt templates for the query-understanding stages. Placeholders are
// substituted with strings.ReplaceAll; keep them unique per template.

const rewritePrompt = `You are an expert query analyst. Your task is to rewrite a user's latest question into a standalone question that can be understood without the context of the chat history.

CRITICAL RULES:
1. If the "Latest User Question" is already a complete, standalone question, you MUST return it exactly as it is. Do not modify it.
2. If the "Latest User Question" contains pronouns (like "it", "its", "they") or ambiguous references ("this drug", "that"), use the "Chat History" to resolve these references and create a complete question.
3. Your output MUST be only the rewritten question. Do not add any commentary.

EXAMPLE 1 (rewrite needed):
- Chat History:
  - user: Who is the sponsor for Esketamine?
  - assistant: Janssen-Cilag Pty Ltd. is the sponsor for Esketamine.
- Latest User Question: what is its use?
- Your Rewritten Question: What is the use of Esketamine?

EXAMPLE 2 (no rewrite needed):
- Chat History:
  - user: Who is the sponsor for Esketamine?
  - assistant: Janssen-Cilag Pty Ltd. is the sponsor for Esketamine.
- Latest User Question: What is the dosage form for Fruquintinib?
- Your Rewritten Question: What is the dosage form for Fruquintinib?

TASK:
- Chat History:
  - {{chat_history}}
- Latest User Question: {{question}}

Your Rewritten Question:`

const personaPrompt = `You are an expert request router. Analyze the user's question and determine which specialist persona is best equipped to answer it. Choose from the available personas and provide ONLY the persona's key name as your response.

Available personas and their expertise:

1. clinical_analyst
   - Focuses on: clinical trial data, drug efficacy, safety profiles, patient outcomes, medical conditions, mechanisms of action.
   - Keywords: treat, condition, indication, dosage, patients, trial, effective, side effects.
   - Choose for questions about the medical and scientific aspects of a drug.

2. health_economist
   - Focuses on: cost-effectiveness, pricing, market access, economic evaluations, healthcare policy implications.
   - Keywords: cost, price, economic, budget, financial, value, policy, summary.
   - Choose for questions about the financial or policy-level impact of a drug.

3. regulatory_specialist
   - Focuses on: submission types, meeting agendas, regulatory pathways (e.g. PBS listing types), sponsors, official guidelines.
   - Keywords: sponsor, submission, listing, agenda, meeting, guideline, change, status.
   - Choose for questions about the process and logistics of drug approval and listing.

User question:
"{{question}}"

Return ONLY the single key name (e.g. clinical_analyst) of the best-fitting persona. Do not add any explanation or other text.`

const classificationPrompt = `You are an expert query analysis agent. Analyze the user's question and provide a structured JSON object with four fields: 'intent', 'keywords', 'themes', and 'question_is_graph_suitable'.

1. 'intent': classify the user's goal into one of these categories:
   - "specific_fact_lookup": questions seeking a single, direct answer (e.g. "What company sponsors Drug X?").
   - "simple_summary": questions asking for a general overview (e.g. "Tell me about Drug Y.").
   - "comparative_analysis": questions that compare two or more items (e.g. "Compare Drug A and Drug B.").
   - "general_qa": all other questions.

2. 'keywords': the most important nouns and proper nouns from the question, such as drug names, company names, or medical conditions, as a JSON list of strings.

3. 'themes': zero or more high-level tags from this closed vocabulary, for metadata filtering: ["clinical", "economic", "regulatory", "safety", "access"].

4. 'question_is_graph_suitable': true if the question involves relationships between entities (e.g. drug-to-sponsor, drug-to-condition) that suit a knowledge graph, otherwise false.

Output ONLY the raw JSON object. Do not add explanations or markdown formatting.

Example question: "What is the cost-effectiveness of Abaloparatide for treating osteoporosis, and who is the sponsor?"
Example JSON output:
{
  "intent": "specific_fact_lookup",
  "keywords": ["Abaloparatide", "osteoporosis", "cost-effectiveness", "sponsor"],
  "themes": ["economic", "regulatory"],
  "question_is_graph_suitable": true
}

User query: {{question}}`

const decompositionPrompt = `You are a query planning agent for a pharmaceutical document QA system. Decide whether the user's question can be answered in a single retrieval step, or must be decomposed into independent sub-questions.

Rules:
- "Single step": a direct fact or summary about one subject. Return the question unchanged as the only plan entry.
- "Decomposition required": comparisons, intersections, or questions spanning multiple entities. Return one retrieval sub-question per subject, each fully standalone, plus optionally one final combining instruction (e.g. "Compare the findings for both drugs").

Return ONLY a JSON object of this shape:
{
  "requires_decomposition": true or false,
  "plan": ["sub-question 1", "sub-question 2", "final combining instruction"]
}

Chat history:
{{chat_history}}

Question: {{question}}`
