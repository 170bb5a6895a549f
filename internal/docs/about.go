package docs

// About is the markdown shown by the About view and the about command.
const About = `# About GFR & PM Assistant

An intelligent AI-powered assistant designed to help users navigate and understand
the General Financial Rules (GFR) 2017 and Procurement Manual (PM) 2025.

## Features

- **Smart Document Processing**: Advanced extraction and organization of rules from GFR and PM documents.
- **Intelligent Chat Interface**: Natural language conversations with accurate citations and context-aware responses.
- **Comprehensive Knowledge Base**: Access to both GFR 2017 and PM 2025 with proper citations and references.
- **Smart Context Understanding**: The conversation so far is sent with every question, so follow-ups keep their context.
- **Accurate Citations**: Every response includes citations from the GFR and PM documents.

## How It Works

The assistant processes both GFR 2017 and PM 2025 to build a knowledge base that can be
queried through natural conversation.

1. Type your question about GFR or PM rules in natural language.
2. The assistant analyzes your question and searches the relevant documents.
3. Receive an answer with citations and context.

## About the Documents

These documents are essential resources for understanding government financial procedures
and procurement processes.

- Official government documents
- Updated with latest amendments
- Comprehensive guidelines
- Standard procedures

Download them with ` + "`suvidha docs download --all`" + `.
`
